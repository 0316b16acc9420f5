// Package model defines the curation pipeline's core entity types.
package model

import "time"

// Quarantine statuses a memory moves through after ingestion.
const (
	QuarantinePending   = "pending"
	QuarantineSafe      = "safe"
	QuarantineUncertain = "uncertain"
	QuarantineFlagged   = "flagged"
	QuarantineRejected  = "rejected"
)

// ValidQuarantineStatuses are the allowed quarantine statuses.
var ValidQuarantineStatuses = map[string]bool{
	QuarantinePending:   true,
	QuarantineSafe:      true,
	QuarantineUncertain: true,
	QuarantineFlagged:   true,
	QuarantineRejected:  true,
}

// Memory is one raw, deduplicated content submission from an owner.
// It is never physically deleted; archival is a flag so the
// compensation ledger can keep referencing it.
type Memory struct {
	ID                string         `json:"id"`
	OwnerID           string         `json:"owner_id"`
	Content           string         `json:"content"`
	Fingerprint       string         `json:"fingerprint"`
	SourceType        string         `json:"source_type"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	QuarantineStatus  string         `json:"quarantine_status"`
	QuarantineScore   float64        `json:"quarantine_score"`
	ClassifierDetails map[string]any `json:"classifier_details,omitempty"`
	ClassifierVersion string         `json:"classifier_version,omitempty"`
	ImportanceScore   float64        `json:"importance_score"`
	QualityScore      float64        `json:"quality_score"`
	Promoted          bool           `json:"promoted"`
	Archived          bool           `json:"archived"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Eligible reports whether the memory may be the subject of a new
// promotion request.
func (m *Memory) Eligible() bool {
	return !m.Promoted && !m.Archived &&
		m.QuarantineStatus != QuarantineFlagged &&
		m.QuarantineStatus != QuarantineRejected
}

// ThreatCategory is a typed view into the classifier details blob.
func (m *Memory) ThreatCategory() string {
	if v, ok := m.ClassifierDetails["threat_category"].(string); ok {
		return v
	}
	return ""
}
