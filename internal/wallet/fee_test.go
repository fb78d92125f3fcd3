package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBreakdown(t *testing.T) {
	b := ComputeBreakdown(10000) // R$100.00
	assert.Equal(t, int64(10000), b.Gross)
	assert.Equal(t, int64(1500), b.Fee)
	assert.Equal(t, int64(8500), b.Net)
	assert.Equal(t, b.Gross, b.Fee+b.Net)
}

func TestComputeBreakdownRoundsFeeDown(t *testing.T) {
	// 15% of R$0.33 is 4.95 cents; the fee truncates to 4.
	b := ComputeBreakdown(33)
	assert.Equal(t, int64(4), b.Fee)
	assert.Equal(t, int64(29), b.Net)
	assert.Equal(t, b.Gross, b.Fee+b.Net)
}

func TestComputeBreakdownNonPositive(t *testing.T) {
	assert.Equal(t, Breakdown{}, ComputeBreakdown(0))
	assert.Equal(t, Breakdown{}, ComputeBreakdown(-500))
}
