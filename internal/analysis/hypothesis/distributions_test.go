package hypothesis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTTestPValue(t *testing.T) {
	d := NewDistributions()

	assert.InDelta(t, 1.0, d.TTestPValue(0, 4), 1e-12)
	assert.InDelta(t, 0.0516060, d.TTestPValue(2.7456259, 4), 1e-5)
	assert.InDelta(t, d.TTestPValue(2.1, 9), d.TTestPValue(-2.1, 9), 1e-15)
	assert.True(t, math.IsNaN(d.TTestPValue(1, 0)))
	assert.True(t, math.IsNaN(d.TTestPValue(math.NaN(), 5)))
	assert.Equal(t, 0.0, d.TTestPValue(math.Inf(1), 5))
}

func TestTCritical(t *testing.T) {
	d := NewDistributions()

	// large df approaches the normal quantile
	assert.InDelta(t, 1.959964, d.TCritical(0.05, 1e7), 1e-4)
	assert.InDelta(t, 2.776445, d.TCritical(0.05, 4), 1e-5)
	assert.True(t, math.IsNaN(d.TCritical(0.05, 0)))
}

func TestFTestPValue(t *testing.T) {
	d := NewDistributions()

	// F(2,6) survival at 27 is (1+27*2/6)^-3
	assert.InDelta(t, 0.001, d.FTestPValue(27, 2, 6), 1e-9)
	assert.InDelta(t, 1.0, d.FTestPValue(0, 2, 6), 1e-12)
	assert.Equal(t, 0.0, d.FTestPValue(math.Inf(1), 2, 6))
	assert.True(t, math.IsNaN(d.FTestPValue(3, 2, 0)))
}

func TestChiSquarePValue(t *testing.T) {
	d := NewDistributions()

	assert.InDelta(t, 0.3729985, d.ChiSquarePValue(0.7936508, 1), 1e-6)
	// df 2 survival is exp(-x/2)
	assert.InDelta(t, math.Exp(-3), d.ChiSquarePValue(6, 2), 1e-12)
	assert.Equal(t, 1.0, d.ChiSquarePValue(12, 0))
}
