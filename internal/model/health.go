package model

import "time"

// Derived mood states for an owner's pipeline health.
const (
	MoodHealthy  = "healthy"
	MoodStressed = "stressed"
	MoodDegraded = "degraded"
	MoodConfused = "confused"
)

// ValidMoods are the allowed mood states.
var ValidMoods = map[string]bool{
	MoodHealthy:  true,
	MoodStressed: true,
	MoodDegraded: true,
	MoodConfused: true,
}

// HealthSnapshot is a periodic aggregate over an owner's curated
// context and recent assistant behavior. One snapshot per time bucket,
// immutable after creation.
type HealthSnapshot struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"owner_id"`
	WindowStart        time.Time `json:"window_start"`
	WindowEnd          time.Time `json:"window_end"`
	Mood               string    `json:"mood"`
	HallucinationRate  float64   `json:"hallucination_rate"`
	CoherenceScore     float64   `json:"coherence_score"`
	ConfidenceScore    float64   `json:"confidence_score"`
	RefusalCount       int       `json:"refusal_count"`
	ContextUtilization float64   `json:"context_utilization"`
	CreatedAt          time.Time `json:"created_at"`
}
