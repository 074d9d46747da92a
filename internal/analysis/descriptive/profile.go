package descriptive

import (
	"math"
	"slices"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	domainstats "statcalc/domain/stats"
	"statcalc/internal/analysis"
)

const topValueCount = 5

// ColumnProfile is the per-column overview shown before analysis
type ColumnProfile struct {
	Column    string             `json:"column"`
	Type      dataset.ColumnType `json:"type"`
	Count     int                `json:"count"`
	Missing   int                `json:"missing"`
	Unique    int                `json:"unique"`
	Numeric   *NumericProfile    `json:"numeric,omitempty"`
	TopValues []ValueCount       `json:"top_values,omitempty"`
}

// NumericProfile summarises a numeric column; nil fields are undefined for the sample
type NumericProfile struct {
	Mean     *float64 `json:"mean"`
	Median   *float64 `json:"median"`
	StdDev   *float64 `json:"std"`
	Min      *float64 `json:"min"`
	Q1       *float64 `json:"q1"`
	Q3       *float64 `json:"q3"`
	Max      *float64 `json:"max"`
	Skewness *float64 `json:"skewness"`
}

// ValueCount is one category and its frequency
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile summarises one column
func (e *Engine) Profile(src analysis.Source, column string) (ColumnProfile, error) {
	col, ok := src.Column(column)
	if !ok {
		return ColumnProfile{}, core.NewColumnNotFoundError(column, src.ColumnNames())
	}

	present := col.Present()
	p := ColumnProfile{
		Column:  col.Name,
		Type:    col.Type,
		Count:   len(present),
		Missing: col.MissingCount(),
	}

	counts := valueCounts(present)
	p.Unique = len(counts)

	if col.IsNumeric() {
		p.Numeric = numericProfile(col.Numbers())
	} else {
		if len(counts) > topValueCount {
			counts = counts[:topValueCount]
		}
		p.TopValues = counts
	}
	return p, nil
}

// ProfileAll profiles every column in order
func (e *Engine) ProfileAll(src analysis.Source) ([]ColumnProfile, error) {
	names := src.ColumnNames()
	out := make([]ColumnProfile, 0, len(names))
	for _, name := range names {
		p, err := e.Profile(src, name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func numericProfile(values []float64) *NumericProfile {
	np := &NumericProfile{}
	if len(values) == 0 {
		return np
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	np.Mean = domainstats.Float(mean)
	np.Median = domainstats.Float(median)
	np.Min = domainstats.Float(sorted[0])
	np.Max = domainstats.Float(sorted[len(sorted)-1])
	np.Q1 = domainstats.Float(Quantile(sorted, 0.25))
	np.Q3 = domainstats.Float(Quantile(sorted, 0.75))
	if len(values) >= 2 {
		sd, _ := stats.StandardDeviationSample(values)
		np.StdDev = domainstats.Float(sd)
		if len(values) >= 3 {
			np.Skewness = domainstats.Float(skewness(values, sd))
		}
	}
	return np
}

// Quantile interpolates linearly between closest ranks of an ascending
// sample: h = (n-1)p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if hi >= n {
		hi = n - 1
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// skewness is the adjusted Fisher-Pearson coefficient; a constant sample has none
func skewness(values []float64, sd float64) float64 {
	if sd == 0 {
		return 0
	}
	return stat.Skew(values, nil)
}

// valueCounts tallies present cells, most frequent first and natural order among ties
func valueCounts(present []dataset.Value) []ValueCount {
	type entry struct {
		value dataset.Value
		count int
	}
	index := make(map[string]int)
	var entries []entry
	for _, v := range present {
		key := v.String()
		if i, ok := index[key]; ok {
			entries[i].count++
			continue
		}
		index[key] = len(entries)
		entries = append(entries, entry{value: v, count: 1})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return dataset.CompareValues(entries[i].value, entries[j].value) < 0
	})

	out := make([]ValueCount, len(entries))
	for i, e := range entries {
		out[i] = ValueCount{Value: e.value.String(), Count: e.count}
	}
	return out
}
