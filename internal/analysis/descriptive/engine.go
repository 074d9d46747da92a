package descriptive

import (
	"slices"

	"github.com/montanaflynn/stats"

	"statcalc/domain/core"
	domainstats "statcalc/domain/stats"
	"statcalc/internal/analysis"
)

// Engine computes descriptive aggregates over the numeric columns of a source
type Engine struct{}

// NewEngine creates a new statistics engine
func NewEngine() *Engine {
	return &Engine{}
}

// Compute evaluates every calculation for every selected numeric column.
// An empty column list selects all columns and an empty calculation list
// selects every calculation. Non-numeric columns are skipped.
func (e *Engine) Compute(src analysis.Source, columns []string, calcs []domainstats.Calculation) (domainstats.PerColumnResults, error) {
	if len(calcs) == 0 {
		calcs = domainstats.AllCalculations
	}
	selected, err := resolveColumns(src, columns)
	if err != nil {
		return nil, err
	}

	var results domainstats.PerColumnResults
	for _, name := range selected {
		col, _ := src.Column(name)
		if !col.IsNumeric() {
			continue
		}
		values := col.Numbers()
		metrics := make(domainstats.Metrics, len(calcs))
		for _, calc := range calcs {
			metrics[string(calc)] = Aggregate(calc, values)
		}
		results = append(results, domainstats.ColumnMetrics{Column: name, Metrics: metrics})
	}

	if len(results) == 0 {
		return nil, core.ErrEmptyNumericSet
	}
	return results, nil
}

// resolveColumns validates the requested names against the source
func resolveColumns(src analysis.Source, columns []string) ([]string, error) {
	if len(columns) == 0 {
		return src.ColumnNames(), nil
	}
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, name := range columns {
		if _, ok := src.Column(name); !ok {
			return nil, core.NewColumnNotFoundError(name, src.ColumnNames())
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

// Aggregate computes one calculation over values with missing data already removed.
// Undefined results are nil; Count is always an int.
func Aggregate(calc domainstats.Calculation, values []float64) any {
	if calc == domainstats.CalcCount {
		return len(values)
	}
	if len(values) == 0 {
		return nil
	}

	var (
		v   float64
		err error
	)
	switch calc {
	case domainstats.CalcMean:
		v, err = stats.Mean(values)
	case domainstats.CalcMedian:
		v, err = stats.Median(values)
	case domainstats.CalcMode:
		v = Mode(values)
	case domainstats.CalcStdDev:
		if len(values) < 2 {
			return nil
		}
		v, err = stats.StandardDeviationSample(values)
	case domainstats.CalcVariance:
		if len(values) < 2 {
			return nil
		}
		v, err = stats.SampleVariance(values)
	case domainstats.CalcMin:
		v, err = stats.Min(values)
	case domainstats.CalcMax:
		v, err = stats.Max(values)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	if f := domainstats.Float(v); f != nil {
		return *f
	}
	return nil
}

// Mode returns the most frequent value, the smallest among ties.
// values must be non-empty.
func Mode(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		// strictly greater keeps the smallest value among ties
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}
