package compensation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultValuer(t *testing.T) {
	points, usd := DefaultValuer("generation-use", 0)
	assert.Equal(t, 5, points)
	assert.InDelta(t, 0.005, usd, 1e-9)

	// Quality scales the base rate up to double.
	points, _ = DefaultValuer("generation-use", 1)
	assert.Equal(t, 10, points)

	points, _ = DefaultValuer("training-contribution", 0.5)
	assert.Equal(t, 75, points)
}

func TestValuerUnknownEvent(t *testing.T) {
	points, usd := DefaultValuer("unheard-of", 0)
	assert.Equal(t, 1, points)
	assert.InDelta(t, 0.001, usd, 1e-9)
}

func TestValuerClampsQuality(t *testing.T) {
	over, _ := DefaultValuer("generation-use", 5)
	under, _ := DefaultValuer("generation-use", -3)
	assert.Equal(t, 10, over)
	assert.Equal(t, 5, under)
}

func TestNewValuerCustomRates(t *testing.T) {
	v := NewValuer(map[string]int{"generation-use": 100}, 0.01)
	points, usd := v("generation-use", 0)
	assert.Equal(t, 100, points)
	assert.InDelta(t, 1.0, usd, 1e-9)
}
