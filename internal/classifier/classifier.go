// Package classifier scores submitted content for quarantine
// admission. The production scorer is an injected capability; this
// package defines the contract, the threshold policy that maps scores
// to quarantine statuses, and a deterministic reference scorer.
package classifier

import (
	"context"

	"github.com/curatorhq/curator/internal/model"
)

// Result is one scoring verdict. Score is 0–1, higher is safer.
type Result struct {
	Score   float64        `json:"score"`
	Label   string         `json:"label"`
	Details map[string]any `json:"details,omitempty"`
}

// Scorer is the pluggable, versioned classifier capability.
type Scorer interface {
	Score(ctx context.Context, content string) (Result, error)
	Version() string
}

// Policy maps a score onto a quarantine status. Bands, high to low:
// safe, uncertain, flagged, rejected.
type Policy struct {
	SafeThreshold   float64 // score >= safe
	FlagThreshold   float64 // reject <= score < flag -> flagged
	RejectThreshold float64 // score < reject -> rejected
}

// DefaultPolicy returns the standard threshold bands.
func DefaultPolicy() Policy {
	return Policy{
		SafeThreshold:   0.8,
		FlagThreshold:   0.5,
		RejectThreshold: 0.3,
	}
}

// StatusFor resolves a score to its quarantine status.
func (p Policy) StatusFor(score float64) string {
	switch {
	case score >= p.SafeThreshold:
		return model.QuarantineSafe
	case score < p.RejectThreshold:
		return model.QuarantineRejected
	case score < p.FlagThreshold:
		return model.QuarantineFlagged
	default:
		return model.QuarantineUncertain
	}
}

// Static is a fixed-verdict scorer for tests and capability stubs.
type Static struct {
	Result Result
	Err    error
	Ver    string
}

func (s Static) Score(ctx context.Context, content string) (Result, error) {
	if s.Err != nil {
		return Result{}, s.Err
	}
	return s.Result, nil
}

func (s Static) Version() string {
	if s.Ver == "" {
		return "static-v1"
	}
	return s.Ver
}
