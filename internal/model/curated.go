package model

import "time"

// CuratedEntry is the materialized, owner-visible unit the assistant
// runtime may read. At most one active entry exists per (owner,
// memory); deactivated entries are history, reactivated only through a
// new approved promotion.
type CuratedEntry struct {
	ID                 string     `json:"id"`
	OwnerID            string     `json:"owner_id"`
	MemoryID           string     `json:"memory_id"`
	Category           string     `json:"category"`
	Priority           int        `json:"priority"`
	RelevanceScore     float64    `json:"relevance_score"`
	RetrievalCount     int        `json:"retrieval_count"`
	LastRetrievedAt    *time.Time `json:"last_retrieved_at,omitempty"`
	Active             bool       `json:"active"`
	DeactivationReason string     `json:"deactivation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
