package classifier

import (
	"context"
	"math"
	"strings"
)

// DefaultBannedPatterns are substrings that mark content as a direct
// policy risk.
var DefaultBannedPatterns = []string{
	"ignore previous instructions",
	"disregard your system prompt",
	"<script",
	"drop table",
	"rm -rf /",
}

// Heuristic is the reference scorer: banned-pattern matching plus
// length and character-entropy checks. Deterministic for a given
// content and pattern set.
type Heuristic struct {
	Patterns []string
}

// NewHeuristic builds the reference scorer; nil patterns fall back to
// the defaults.
func NewHeuristic(patterns []string) *Heuristic {
	if patterns == nil {
		patterns = DefaultBannedPatterns
	}
	return &Heuristic{Patterns: patterns}
}

func (h *Heuristic) Version() string { return "heuristic-v1" }

// Score rates content 0–1, higher is safer.
func (h *Heuristic) Score(ctx context.Context, content string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	score := 1.0
	details := map[string]any{"length": len(content)}
	lower := strings.ToLower(content)

	var hits []string
	for _, p := range h.Patterns {
		if strings.Contains(lower, p) {
			hits = append(hits, p)
		}
	}
	if len(hits) > 0 {
		score -= 0.4 + 0.2*float64(len(hits)-1)
		details["pattern_hits"] = hits
		details["threat_category"] = "banned-pattern"
	}

	trimmed := strings.TrimSpace(content)
	if len(trimmed) < 8 {
		score -= 0.3
		details["too_short"] = true
	}
	if len(content) > 64*1024 {
		score -= 0.2
		details["oversized"] = true
	}

	// Near-uniform character distributions look like encoded or
	// obfuscated payloads; near-zero entropy is filler.
	entropy := charEntropy(trimmed)
	details["entropy"] = math.Round(entropy*100) / 100
	if len(trimmed) >= 32 {
		if entropy > 5.5 {
			score -= 0.3
			if _, ok := details["threat_category"]; !ok {
				details["threat_category"] = "high-entropy"
			}
		} else if entropy < 1.5 {
			score -= 0.2
		}
	}

	if score < 0 {
		score = 0
	}

	label := "clean"
	if len(hits) > 0 {
		label = "suspicious"
	}
	return Result{Score: score, Label: label, Details: details}, nil
}

// charEntropy is the Shannon entropy of the rune distribution, in
// bits.
func charEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := map[rune]int{}
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	entropy := 0.0
	for _, n := range counts {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
