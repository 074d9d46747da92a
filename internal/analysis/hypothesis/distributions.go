package hypothesis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides the reference distributions behind every p-value
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// TTestPValue computes the two-tailed p-value of t under Student's t with df degrees of freedom.
// A non-finite statistic or non-positive df yields NaN.
func (d *Distributions) TTestPValue(t, df float64) float64 {
	if math.IsNaN(t) || math.IsNaN(df) || df <= 0 {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clampProbability(2 * (1 - tDist.CDF(math.Abs(t))))
}

// TCritical returns the two-sided critical value for significance level alpha
func (d *Distributions) TCritical(alpha, df float64) float64 {
	if df <= 0 || math.IsNaN(df) {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return tDist.Quantile(1 - alpha/2)
}

// FTestPValue computes the upper-tail p-value of the F distribution (ANOVA)
func (d *Distributions) FTestPValue(f float64, df1, df2 float64) float64 {
	if math.IsNaN(f) || df1 <= 0 || df2 <= 0 {
		return math.NaN()
	}
	if math.IsInf(f, 1) {
		return 0
	}
	fDist := distuv.F{D1: df1, D2: df2}
	return clampProbability(1 - fDist.CDF(f))
}

// ChiSquarePValue computes the upper-tail p-value of the chi-square distribution
func (d *Distributions) ChiSquarePValue(chiSquare float64, df float64) float64 {
	if df <= 0 {
		return 1.0
	}
	if math.IsNaN(chiSquare) {
		return math.NaN()
	}
	chiDist := distuv.ChiSquared{K: df}
	return clampProbability(1 - chiDist.CDF(chiSquare))
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
