// Package compensation computes value accruals for memory usage. The
// scoring function is pluggable; the ledger rows it feeds live in the
// store.
package compensation

import "math"

// Valuer converts a usage event plus the memory's quality score into
// value points and an estimated monetary value.
type Valuer func(eventType string, qualityScore float64) (points int, estimatedUSD float64)

// DefaultRates are base points per compensation event type.
var DefaultRates = map[string]int{
	"training-contribution": 50,
	"generation-use":        5,
	"research-citation":     25,
	"collective-value":      10,
}

// DefaultUSDPerPoint is the default point-to-dollar estimate.
const DefaultUSDPerPoint = 0.001

// NewValuer builds a Valuer from a rate table. Quality scales the base
// rate: a quality of 1.0 doubles it, 0 leaves it unchanged.
func NewValuer(rates map[string]int, usdPerPoint float64) Valuer {
	if rates == nil {
		rates = DefaultRates
	}
	if usdPerPoint <= 0 {
		usdPerPoint = DefaultUSDPerPoint
	}
	return func(eventType string, qualityScore float64) (int, float64) {
		base := rates[eventType]
		if base == 0 {
			base = 1
		}
		quality := math.Max(0, math.Min(1, qualityScore))
		points := int(math.Round(float64(base) * (1 + quality)))
		return points, float64(points) * usdPerPoint
	}
}

// DefaultValuer scores with the default rate table.
var DefaultValuer = NewValuer(nil, 0)
