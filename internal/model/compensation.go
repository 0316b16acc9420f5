package model

import "time"

// Compensation event types.
const (
	CompTrainingContribution = "training-contribution"
	CompGenerationUse        = "generation-use"
	CompResearchCitation     = "research-citation"
	CompCollectiveValue      = "collective-value"
)

// ValidCompensationEvents are the allowed compensation event types.
var ValidCompensationEvents = map[string]bool{
	CompTrainingContribution: true,
	CompGenerationUse:        true,
	CompResearchCitation:     true,
	CompCollectiveValue:      true,
}

// Payment statuses for compensation entries. Transitions are driven by
// an external reconciliation process.
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentPaid     = "paid"
	PaymentDonated  = "donated"
)

// ValidPaymentStatuses are the allowed payment statuses.
var ValidPaymentStatuses = map[string]bool{
	PaymentPending:  true,
	PaymentApproved: true,
	PaymentPaid:     true,
	PaymentDonated:  true,
}

// CompensationEntry is one usage-triggered value accrual, tied back to
// the memory whose content earned it.
type CompensationEntry struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	MemoryID        string    `json:"memory_id,omitempty"`
	EventType       string    `json:"event_type"`
	UsageContext    string    `json:"usage_context,omitempty"`
	ValuePoints     int       `json:"value_points"`
	EstimatedValue  float64   `json:"estimated_value"`
	BeneficiaryType string    `json:"beneficiary_type"`
	BeneficiaryID   string    `json:"beneficiary_id,omitempty"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`
}
