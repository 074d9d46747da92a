package hypothesis

import (
	"fmt"
	"math"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/domain/stats"
	"statcalc/internal"
	"statcalc/internal/analysis"
)

// Significance level bounds; the lower bound is exclusive
const (
	DefaultAlpha = 0.05
	MinAlpha     = 0.01
	MaxAlpha     = 0.10
)

// MinExpectedFrequency is the chi-square reliability threshold
const MinExpectedFrequency = 5.0

// Request selects one test and its inputs
type Request struct {
	Kind    stats.TestKind `json:"test_type"`
	Columns []string       `json:"columns"`
	// PopulationMean is the hypothesised mean of the one-sample test
	PopulationMean *float64 `json:"population_mean,omitempty"`
	// Alpha of zero means the engine default
	Alpha float64 `json:"alpha,omitempty"`
	// EqualVariance switches the two-sample test from Welch to Student; nil means Welch
	EqualVariance *bool `json:"equal_variance,omitempty"`
}

// PooledVariance reports whether the two-sample test uses Student's pooled variance
func (r Request) PooledVariance() bool {
	return r.EqualVariance != nil && *r.EqualVariance
}

// Engine runs hypothesis tests over a source. It holds no state between calls.
type Engine struct {
	dist         *Distributions
	defaultAlpha float64
	logger       *internal.Logger
}

// Option customises an Engine
type Option func(*Engine)

// WithDefaultAlpha sets the alpha used when a request carries none
func WithDefaultAlpha(alpha float64) Option {
	return func(e *Engine) { e.defaultAlpha = alpha }
}

// WithLogger sets the engine logger
func WithLogger(l *internal.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a new hypothesis test engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{dist: NewDistributions(), defaultAlpha: DefaultAlpha, logger: internal.DefaultLogger}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("HypothesisTest")
	return e
}

// ValidateAlpha checks alpha against (MinAlpha, MaxAlpha]
func ValidateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha <= MinAlpha || alpha > MaxAlpha {
		return fmt.Errorf("%w: %g not in (%g, %g]", core.ErrInvalidAlpha, alpha, MinAlpha, MaxAlpha)
	}
	return nil
}

// Run validates the request, computes the statistic, classifies it against
// alpha and assembles the report. Validation failures return before any
// computation.
func (e *Engine) Run(src analysis.Source, req Request) (*stats.TestReport, error) {
	alpha := req.Alpha
	if alpha == 0 {
		alpha = e.defaultAlpha
	}
	if err := ValidateAlpha(alpha); err != nil {
		return nil, err
	}

	var (
		report *stats.TestReport
		err    error
	)
	switch req.Kind {
	case stats.TestOneSampleT:
		report, err = e.oneSampleT(src, req)
	case stats.TestTwoSampleT:
		report, err = e.twoSampleT(src, req)
	case stats.TestPairedT:
		report, err = e.pairedT(src, req)
	case stats.TestChiSquare:
		report, err = e.chiSquare(src, req)
	case stats.TestANOVA:
		report, err = e.anova(src, req)
	default:
		return nil, fmt.Errorf("%w: unknown test %q", core.ErrInvalidInput, req.Kind)
	}
	if err != nil {
		return nil, err
	}

	report.Kind = req.Kind
	report.Title = req.Kind.Title()
	report.Alpha = alpha
	report.Classify()
	e.logger.Debug("%s on %v: %s=%g p=%g (%s)", report.Title, report.Columns,
		report.StatisticName, report.Statistic.Float(), report.PValue.Float(), report.Decision)
	return report, nil
}

// ============================================================================
// VALIDATION
// ============================================================================

// requireColumns checks the column count, existence and distinctness
func requireColumns(src analysis.Source, columns []string, want int, kind stats.TestKind) ([]*dataset.Column, error) {
	if len(columns) != want {
		return nil, fmt.Errorf("%w: %s needs exactly %d column(s), got %d", core.ErrInvalidInput, kind, want, len(columns))
	}
	return lookupDistinct(src, columns)
}

func lookupDistinct(src analysis.Source, columns []string) ([]*dataset.Column, error) {
	out := make([]*dataset.Column, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		col, ok := src.Column(name)
		if !ok {
			return nil, core.NewColumnNotFoundError(name, src.ColumnNames())
		}
		if seen[name] {
			return nil, core.NewSameColumnError(name)
		}
		seen[name] = true
		out = append(out, col)
	}
	return out, nil
}

// numericSamples requires numeric columns with at least one present value each
func numericSamples(cols []*dataset.Column) ([][]float64, error) {
	for _, c := range cols {
		if !c.IsNumeric() {
			return nil, core.NewNonNumericColumnError(c.Name)
		}
	}
	samples := make([][]float64, len(cols))
	for i, c := range cols {
		samples[i] = c.Numbers()
		if len(samples[i]) == 0 {
			return nil, core.NewEmptyColumnError(c.Name)
		}
	}
	return samples, nil
}

func columnNames(cols []*dataset.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
