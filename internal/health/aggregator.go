// Package health derives periodic per-owner snapshots from decision
// and retrieval activity, and drives the negative-feedback edge back
// into the curated context store.
package health

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/store"
)

// Store is the slice of the storage layer the aggregator reads and,
// for feedback deactivation, writes.
type Store interface {
	DecisionStats(ctx context.Context, owner string, from, to time.Time) (store.DecisionStats, error)
	RetrievalStats(ctx context.Context, owner string, from, to time.Time) (store.RetrievalStats, error)
	RefusalCountsByEntry(ctx context.Context, owner string, from, to time.Time) (map[string]int, error)
	InsertSnapshot(ctx context.Context, snap model.HealthSnapshot) (*model.HealthSnapshot, error)
	DeactivateEntry(ctx context.Context, owner, entryID, reason, actorID string) error
}

// Metrics are the derived values a mood policy judges.
type Metrics struct {
	Decisions          store.DecisionStats  `json:"decisions"`
	Retrieval          store.RetrievalStats `json:"retrieval"`
	HallucinationRate  float64              `json:"hallucination_rate"`
	RefusalRate        float64              `json:"refusal_rate"`
	CoherenceScore     float64              `json:"coherence_score"`
	ConfidenceScore    float64              `json:"confidence_score"`
	ContextUtilization float64              `json:"context_utilization"`
}

// Compute derives Metrics from window stats. Pure function; the
// aggregator's persistence is the only side effect anywhere in this
// package.
func Compute(d store.DecisionStats, r store.RetrievalStats) Metrics {
	m := Metrics{Decisions: d, Retrieval: r, ConfidenceScore: d.AvgConfidence}

	if d.Total > 0 {
		m.HallucinationRate = float64(d.Overridden) / float64(d.Total)
		m.RefusalRate = float64(d.Refused) / float64(d.Total)
	}
	m.CoherenceScore = d.AvgConfidence * (1 - m.HallucinationRate)

	if r.ActiveEntries > 0 {
		m.ContextUtilization = math.Min(1, float64(r.DistinctMemories)/float64(r.ActiveEntries)) * 100
	}
	return m
}

// MoodPolicy maps metrics to a mood label. The mapping has no fixed
// formula upstream, so it stays swappable.
type MoodPolicy func(Metrics) string

// Thresholds parameterize the default mood policy.
type Thresholds struct {
	ConfusedHallucinationRate float64
	StressedRefusalRate       float64
	DegradedCoherence         float64
}

// DefaultThresholds returns the standard mood bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConfusedHallucinationRate: 0.3,
		StressedRefusalRate:       0.5,
		DegradedCoherence:         0.4,
	}
}

// Policy builds the default mood policy: confusion dominates, then
// degradation, then stress.
func (t Thresholds) Policy() MoodPolicy {
	return func(m Metrics) string {
		switch {
		case m.Decisions.Total == 0:
			return model.MoodHealthy
		case m.HallucinationRate > t.ConfusedHallucinationRate:
			return model.MoodConfused
		case m.CoherenceScore < t.DegradedCoherence:
			return model.MoodDegraded
		case m.RefusalRate > t.StressedRefusalRate:
			return model.MoodStressed
		default:
			return model.MoodHealthy
		}
	}
}

// Aggregator computes and persists health snapshots.
type Aggregator struct {
	Store Store
	Mood  MoodPolicy

	// FeedbackRefusals is the refused-decision count per entry that
	// triggers deactivation; <= 0 disables the feedback edge.
	FeedbackRefusals int
}

// NewAggregator wires the default mood policy.
func NewAggregator(s Store) *Aggregator {
	return &Aggregator{Store: s, Mood: DefaultThresholds().Policy()}
}

// Aggregate computes one snapshot for the window and persists it.
// Buckets are immutable: re-aggregating an existing window returns the
// stored snapshot.
func (a *Aggregator) Aggregate(ctx context.Context, owner string, windowStart, windowEnd time.Time) (*model.HealthSnapshot, error) {
	if !windowEnd.After(windowStart) {
		return nil, fmt.Errorf("window end %v not after start %v", windowEnd, windowStart)
	}

	decisions, err := a.Store.DecisionStats(ctx, owner, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("decision stats: %w", err)
	}
	retrieval, err := a.Store.RetrievalStats(ctx, owner, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("retrieval stats: %w", err)
	}

	m := Compute(decisions, retrieval)
	mood := a.Mood
	if mood == nil {
		mood = DefaultThresholds().Policy()
	}

	return a.Store.InsertSnapshot(ctx, model.HealthSnapshot{
		OwnerID:            owner,
		WindowStart:        windowStart.UTC(),
		WindowEnd:          windowEnd.UTC(),
		Mood:               mood(m),
		HallucinationRate:  m.HallucinationRate,
		CoherenceScore:     m.CoherenceScore,
		ConfidenceScore:    m.ConfidenceScore,
		RefusalCount:       decisions.Refused,
		ContextUtilization: m.ContextUtilization,
	})
}

// ApplyFeedback deactivates curated entries whose refused-decision
// count in the window reached the threshold. Returns the deactivated
// entry ids.
func (a *Aggregator) ApplyFeedback(ctx context.Context, owner string, from, to time.Time) ([]string, error) {
	if a.FeedbackRefusals <= 0 {
		return nil, nil
	}
	counts, err := a.Store.RefusalCountsByEntry(ctx, owner, from, to)
	if err != nil {
		return nil, err
	}

	var deactivated []string
	for entryID, n := range counts {
		if n < a.FeedbackRefusals {
			continue
		}
		err := a.Store.DeactivateEntry(ctx, owner, entryID,
			fmt.Sprintf("negative-feedback: %d refusals", n), "health-aggregator")
		if err != nil {
			return deactivated, err
		}
		deactivated = append(deactivated, entryID)
	}
	return deactivated, nil
}
