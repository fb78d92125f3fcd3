package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKnownPairs(t *testing.T) {
	// São Paulo (Sé) to Rio de Janeiro (centro) is roughly 360 km.
	d := Distance(-23.5505, -46.6333, -22.9068, -43.1729)
	assert.InDelta(t, 360, d, 10)

	assert.Zero(t, Distance(-23.5505, -46.6333, -23.5505, -46.6333))
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(-23.5, -46.6, -22.9, -43.2)
	b := Distance(-22.9, -43.2, -23.5, -46.6)
	assert.InDelta(t, a, b, 1e-9)
}
