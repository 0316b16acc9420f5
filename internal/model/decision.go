package model

import "time"

// Assistant-side governance decisions.
const (
	DecisionAccepted = "accepted"
	DecisionRefused  = "refused"
	DecisionDeferred = "deferred"
	DecisionModified = "modified"
)

// ValidDecisions are the allowed decision outcomes.
var ValidDecisions = map[string]bool{
	DecisionAccepted: true,
	DecisionRefused:  true,
	DecisionDeferred: true,
	DecisionModified: true,
}

// Decision records one accept/refuse/defer/modify choice the assistant
// runtime made against curated context, independent of human curation.
// Only the override fields mutate after creation, and only by an
// explicit human action.
type Decision struct {
	ID                    string     `json:"id"`
	OwnerID               string     `json:"owner_id"`
	RequestSummary        string     `json:"request_summary"`
	Decision              string     `json:"decision"`
	Reason                string     `json:"reason,omitempty"`
	Confidence            float64    `json:"confidence"`
	MemoryID              string     `json:"memory_id,omitempty"`
	CuratedEntryID        string     `json:"curated_entry_id,omitempty"`
	Overridden            bool       `json:"overridden"`
	OverriddenBy          string     `json:"overridden_by,omitempty"`
	OverrideJustification string     `json:"override_justification,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	OverriddenAt          *time.Time `json:"overridden_at,omitempty"`
}
