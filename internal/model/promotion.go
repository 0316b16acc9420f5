package model

import "time"

// Promotion request statuses. Approved, Rejected and NeedsRevision are
// terminal; a new review cycle requires a fresh request.
const (
	RequestPending       = "pending"
	RequestInReview      = "in_review"
	RequestApproved      = "approved"
	RequestRejected      = "rejected"
	RequestNeedsRevision = "needs_revision"
)

// ValidRequestStatuses are the allowed promotion request statuses.
var ValidRequestStatuses = map[string]bool{
	RequestPending:       true,
	RequestInReview:      true,
	RequestApproved:      true,
	RequestRejected:      true,
	RequestNeedsRevision: true,
}

// ValidOutcomes are the statuses a resolver may transition an open
// request into.
var ValidOutcomes = map[string]bool{
	RequestApproved:      true,
	RequestRejected:      true,
	RequestNeedsRevision: true,
}

// Request priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriorities are the allowed request priorities.
var ValidPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// PromotionRequest is a reviewable proposal to promote one Memory into
// the curated context. At most one open (pending/in_review) request
// exists per memory at a time.
type PromotionRequest struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	MemoryID      string     `json:"memory_id"`
	RequesterID   string     `json:"requester_id"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Reason        string     `json:"reason,omitempty"`
	ApproveVotes  int        `json:"approve_votes"`
	RejectVotes   int        `json:"reject_votes"`
	ReviewerID    string     `json:"reviewer_id,omitempty"`
	ReviewerNotes string     `json:"reviewer_notes,omitempty"`
	AutoScore     float64    `json:"auto_score"`
	ManualScore   float64    `json:"manual_score"`
	QuorumMet     bool       `json:"quorum_met,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// Open reports whether the request is still awaiting resolution.
func (r *PromotionRequest) Open() bool {
	return r.Status == RequestPending || r.Status == RequestInReview
}
