package hypothesis

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/domain/stats"
	"statcalc/internal"
	"statcalc/internal/testkit"
)

func newTestEngine() *Engine {
	return NewEngine(WithLogger(internal.NewDiscardLogger()))
}

func numericTable(cols map[string][]string, order ...string) *dataset.Table {
	rows := [][]string{order}
	n := len(cols[order[0]])
	for i := 0; i < n; i++ {
		row := make([]string, len(order))
		for j, name := range order {
			row[j] = cols[name][i]
		}
		rows = append(rows, row)
	}
	return testkit.Table(rows)
}

func floats(vs ...float64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

func mu(v float64) *float64 { return &v }

func TestOneSampleT(t *testing.T) {
	e := newTestEngine()

	t.Run("mean equal to hypothesis", func(t *testing.T) {
		src := numericTable(map[string][]string{"X": floats(1, 2, 3, 4, 5)}, "X")
		r, err := e.Run(src, Request{Kind: stats.TestOneSampleT, Columns: []string{"X"}, PopulationMean: mu(3)})
		require.NoError(t, err)
		assert.InDelta(t, 0, r.Statistic.Float(), 1e-12)
		assert.InDelta(t, 1, r.PValue.Float(), 1e-9)
		assert.Equal(t, 4.0, r.DF.Float())
		assert.False(t, r.Significant)
		assert.Equal(t, []int{5}, r.SampleSizes)
		require.NotNil(t, r.ConfidenceInterval)
		assert.InDelta(t, 1.0368, r.ConfidenceInterval.Lower.Float(), 1e-3)
		assert.InDelta(t, 4.9632, r.ConfidenceInterval.Upper.Float(), 1e-3)
	})

	t.Run("shifted sample", func(t *testing.T) {
		src := numericTable(map[string][]string{"X": floats(5.1, 4.9, 5.6, 5.8, 6.0, 5.4)}, "X")
		r, err := e.Run(src, Request{Kind: stats.TestOneSampleT, Columns: []string{"X"}, PopulationMean: mu(5)})
		require.NoError(t, err)
		assert.InDelta(t, 2.7351263, r.Statistic.Float(), 1e-6)
		assert.InDelta(t, 0.0410292, r.PValue.Float(), 1e-5)
		assert.True(t, r.Significant)
		assert.Equal(t, 0.05, r.Alpha)
	})

	t.Run("single value is degenerate", func(t *testing.T) {
		src := numericTable(map[string][]string{"X": {"4", ""}}, "X")
		r, err := e.Run(src, Request{Kind: stats.TestOneSampleT, Columns: []string{"X"}, PopulationMean: mu(3)})
		require.NoError(t, err)
		assert.True(t, math.IsNaN(r.PValue.Float()))
		assert.False(t, r.Significant)
	})

	t.Run("needs population mean", func(t *testing.T) {
		src := numericTable(map[string][]string{"X": floats(1, 2)}, "X")
		_, err := e.Run(src, Request{Kind: stats.TestOneSampleT, Columns: []string{"X"}})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})
}

func TestTwoSampleT(t *testing.T) {
	e := newTestEngine()
	src := numericTable(map[string][]string{
		"A": floats(1, 2, 3, 4, 5),
		"B": floats(2, 4, 6, 8, 10),
	}, "A", "B")

	t.Run("welch", func(t *testing.T) {
		r, err := e.Run(src, Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "B"}})
		require.NoError(t, err)
		assert.InDelta(t, -1.8973666, r.Statistic.Float(), 1e-6)
		assert.InDelta(t, 5.8823529, r.DF.Float(), 1e-6)
		assert.InDelta(t, 0.1075312, r.PValue.Float(), 1e-5)
		assert.Equal(t, "negative", r.DifferenceSign)
		require.Len(t, r.Groups, 2)
		assert.Equal(t, 3.0, r.Groups[0].Mean.Float())
		assert.InDelta(t, math.Sqrt(10), r.Groups[1].SD.Float(), 1e-12)
	})

	t.Run("student", func(t *testing.T) {
		r, err := e.Run(src, Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "B"}, EqualVariance: boolPtr(true)})
		require.NoError(t, err)
		assert.Equal(t, 8.0, r.DF.Float())
		assert.InDelta(t, 0.0943498, r.PValue.Float(), 1e-5)
		assert.True(t, r.EqualVariance)
	})

	t.Run("swap flips sign only", func(t *testing.T) {
		ab, err := e.Run(src, Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "B"}})
		require.NoError(t, err)
		ba, err := e.Run(src, Request{Kind: stats.TestTwoSampleT, Columns: []string{"B", "A"}})
		require.NoError(t, err)
		assert.InDelta(t, ab.PValue.Float(), ba.PValue.Float(), 1e-12)
		assert.InDelta(t, -ab.Statistic.Float(), ba.Statistic.Float(), 1e-12)
	})

	t.Run("missing values dropped per column", func(t *testing.T) {
		gappy := numericTable(map[string][]string{
			"A": {"1", "", "3", "4"},
			"B": {"2", "5", "", "7"},
		}, "A", "B")
		r, err := e.Run(gappy, Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "B"}})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 3}, r.SampleSizes)
	})
}

func TestPairedT(t *testing.T) {
	e := newTestEngine()

	t.Run("reference values", func(t *testing.T) {
		src := numericTable(map[string][]string{
			"Before": floats(10, 12, 9, 11, 14),
			"After":  floats(8, 11, 9, 10, 11),
		}, "Before", "After")
		r, err := e.Run(src, Request{Kind: stats.TestPairedT, Columns: []string{"Before", "After"}})
		require.NoError(t, err)
		assert.InDelta(t, 2.7456259, r.Statistic.Float(), 1e-6)
		assert.InDelta(t, 0.0516060, r.PValue.Float(), 1e-5)
		assert.False(t, r.Significant)
		require.NotNil(t, r.MeanDifference)
		assert.InDelta(t, 1.4, r.MeanDifference.Float(), 1e-12)
		assert.Equal(t, "positive", r.DifferenceSign)
	})

	t.Run("rows aligned by index", func(t *testing.T) {
		src := numericTable(map[string][]string{
			"A": {"1", "", "3", "4", "9"},
			"B": {"2", "5", "", "3", "7"},
		}, "A", "B")
		r, err := e.Run(src, Request{Kind: stats.TestPairedT, Columns: []string{"A", "B"}})
		require.NoError(t, err)
		assert.Equal(t, 3, r.PairCount)
		a, _ := src.Column("A")
		b, _ := src.Column("B")
		assert.LessOrEqual(t, r.PairCount, min(len(a.Numbers()), len(b.Numbers())))
		// pairs (1,2) (4,3) (9,7)
		assert.InDelta(t, 2.0/3.0, r.MeanDifference.Float(), 1e-12)
	})

	t.Run("no complete rows", func(t *testing.T) {
		src := numericTable(map[string][]string{
			"A": {"1", ""},
			"B": {"", "2"},
		}, "A", "B")
		_, err := e.Run(src, Request{Kind: stats.TestPairedT, Columns: []string{"A", "B"}})
		assert.ErrorIs(t, err, core.ErrEmptyColumn)
	})
}

func chiTable(pairs [][2]string) *dataset.Table {
	rows := [][]string{{"Treatment", "Outcome"}}
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return testkit.Table(rows)
}

func repeatPair(a, b string, n int) [][2]string {
	out := make([][2]string, n)
	for i := range out {
		out[i] = [2]string{a, b}
	}
	return out
}

func TestChiSquare(t *testing.T) {
	e := newTestEngine()

	var pairs [][2]string
	pairs = append(pairs, repeatPair("drug", "better", 10)...)
	pairs = append(pairs, repeatPair("drug", "worse", 20)...)
	pairs = append(pairs, repeatPair("placebo", "better", 30)...)
	pairs = append(pairs, repeatPair("placebo", "worse", 40)...)
	pairs = append(pairs, [2]string{"", "better"}) // dropped

	t.Run("pearson without correction", func(t *testing.T) {
		r, err := e.Run(chiTable(pairs), Request{Kind: stats.TestChiSquare, Columns: []string{"Treatment", "Outcome"}})
		require.NoError(t, err)
		assert.InDelta(t, 0.7936508, r.Statistic.Float(), 1e-6)
		assert.Equal(t, 1.0, r.DF.Float())
		assert.InDelta(t, 0.3729985, r.PValue.Float(), 1e-5)
		require.NotNil(t, r.Contingency)
		assert.Equal(t, []string{"drug", "placebo"}, r.Contingency.RowLabels)
		assert.Equal(t, []string{"better", "worse"}, r.Contingency.ColumnLabels)
		assert.Equal(t, [][]int{{10, 20}, {30, 40}}, r.Contingency.Observed)
		assert.Equal(t, 100, r.Contingency.Total)
		require.NotNil(t, r.Assumption)
		assert.True(t, r.Assumption.Reliable)
		assert.InDelta(t, 12.0, r.Assumption.MinExpected.Float(), 1e-12)
	})

	t.Run("row permutation invariant", func(t *testing.T) {
		reversed := make([][2]string, len(pairs))
		for i, p := range pairs {
			reversed[len(pairs)-1-i] = p
		}
		a, err := e.Run(chiTable(pairs), Request{Kind: stats.TestChiSquare, Columns: []string{"Treatment", "Outcome"}})
		require.NoError(t, err)
		b, err := e.Run(chiTable(reversed), Request{Kind: stats.TestChiSquare, Columns: []string{"Treatment", "Outcome"}})
		require.NoError(t, err)
		assert.InDelta(t, a.Statistic.Float(), b.Statistic.Float(), 1e-12)
		assert.InDelta(t, a.PValue.Float(), b.PValue.Float(), 1e-12)
	})

	t.Run("transposed table", func(t *testing.T) {
		a, err := e.Run(chiTable(pairs), Request{Kind: stats.TestChiSquare, Columns: []string{"Treatment", "Outcome"}})
		require.NoError(t, err)
		b, err := e.Run(chiTable(pairs), Request{Kind: stats.TestChiSquare, Columns: []string{"Outcome", "Treatment"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"better", "worse"}, b.Contingency.RowLabels)
		assert.Equal(t, [][]int{{10, 30}, {20, 40}}, b.Contingency.Observed)
		assert.InDelta(t, a.Statistic.Float(), b.Statistic.Float(), 1e-12)
		assert.InDelta(t, a.PValue.Float(), b.PValue.Float(), 1e-12)
		assert.Equal(t, a.DF.Float(), b.DF.Float())
		assert.InDelta(t, a.Assumption.MinExpected.Float(), b.Assumption.MinExpected.Float(), 1e-12)
	})

	t.Run("small expected counts are flagged", func(t *testing.T) {
		small := [][2]string{{"a", "x"}, {"a", "y"}, {"b", "x"}, {"b", "x"}}
		r, err := e.Run(chiTable(small), Request{Kind: stats.TestChiSquare, Columns: []string{"Treatment", "Outcome"}})
		require.NoError(t, err)
		assert.False(t, r.Assumption.Reliable)
		assert.Contains(t, r.Assumption.Message, "below 5")
	})

	t.Run("single category", func(t *testing.T) {
		one := [][2]string{{"a", "x"}, {"a", "y"}, {"a", "x"}}
		r, err := e.Run(chiTable(one), Request{Kind: stats.TestChiSquare, Columns: []string{"Treatment", "Outcome"}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.DF.Float())
		assert.Equal(t, 1.0, r.PValue.Float())
		assert.False(t, r.Significant)
	})

	t.Run("numeric categories sort numerically", func(t *testing.T) {
		nums := [][2]string{{"10", "x"}, {"9", "y"}, {"2", "x"}}
		r, err := e.Run(chiTable(nums), Request{Kind: stats.TestChiSquare, Columns: []string{"Treatment", "Outcome"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "9", "10"}, r.Contingency.RowLabels)
	})
}

func TestANOVA(t *testing.T) {
	e := newTestEngine()

	t.Run("reference values", func(t *testing.T) {
		src := numericTable(map[string][]string{
			"G1": floats(1, 2, 3),
			"G2": floats(4, 5, 6),
			"G3": floats(7, 8, 9),
		}, "G1", "G2", "G3")
		r, err := e.Run(src, Request{Kind: stats.TestANOVA, Columns: []string{"G1", "G2", "G3"}})
		require.NoError(t, err)
		assert.InDelta(t, 27.0, r.Statistic.Float(), 1e-9)
		assert.Equal(t, 2.0, r.DF.Float())
		assert.Equal(t, 6.0, r.DF2.Float())
		assert.InDelta(t, 0.001, r.PValue.Float(), 1e-6)
		assert.True(t, r.Significant)
		require.NotNil(t, r.ANOVA)
		assert.InDelta(t, 54.0, r.ANOVA.SSBetween.Float(), 1e-9)
		assert.InDelta(t, 6.0, r.ANOVA.SSWithin.Float(), 1e-9)
	})

	t.Run("identical means", func(t *testing.T) {
		src := numericTable(map[string][]string{
			"G1": floats(1, 2, 3),
			"G2": floats(3, 2, 1),
			"G3": floats(2, 1, 3),
		}, "G1", "G2", "G3")
		r, err := e.Run(src, Request{Kind: stats.TestANOVA, Columns: []string{"G1", "G2", "G3"}})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, r.PValue.Float(), 1e-9)
		assert.False(t, r.Significant)
	})

	t.Run("two groups fail", func(t *testing.T) {
		src := numericTable(map[string][]string{"G1": floats(1, 2), "G2": floats(3, 4)}, "G1", "G2")
		_, err := e.Run(src, Request{Kind: stats.TestANOVA, Columns: []string{"G1", "G2"}})
		assert.ErrorIs(t, err, core.ErrInsufficientGroups)
	})
}

func TestPreconditions(t *testing.T) {
	e := newTestEngine()
	src := testkit.Table([][]string{
		{"A", "B", "Label", "Blank"},
		{"1", "2", "x", ""},
		{"2", "3", "y", ""},
		{"3", "5", "x", ""},
	})

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown column", Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "Z"}}, core.ErrColumnNotFound},
		{"same column", Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "A"}}, core.ErrSameColumn},
		{"same column chi", Request{Kind: stats.TestChiSquare, Columns: []string{"Label", "Label"}}, core.ErrSameColumn},
		{"non numeric", Request{Kind: stats.TestPairedT, Columns: []string{"A", "Label"}}, core.ErrNonNumericColumn},
		{"non numeric anova", Request{Kind: stats.TestANOVA, Columns: []string{"A", "B", "Label"}}, core.ErrNonNumericColumn},
		{"empty column", Request{Kind: stats.TestOneSampleT, Columns: []string{"Blank"}, PopulationMean: mu(0)}, core.ErrEmptyColumn},
		{"empty chi column", Request{Kind: stats.TestChiSquare, Columns: []string{"Label", "Blank"}}, core.ErrEmptyColumn},
		{"wrong arity", Request{Kind: stats.TestTwoSampleT, Columns: []string{"A"}}, core.ErrInvalidInput},
		{"alpha too small", Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "B"}, Alpha: 0.01}, core.ErrInvalidAlpha},
		{"alpha too large", Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "B"}, Alpha: 0.2}, core.ErrInvalidAlpha},
		{"unknown kind", Request{Kind: "sign_test", Columns: []string{"A"}}, core.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := e.Run(src, tt.req)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAlphaControlsDecision(t *testing.T) {
	src := numericTable(map[string][]string{"X": floats(5.1, 4.9, 5.6, 5.8, 6.0, 5.4)}, "X")
	// p is about 0.041
	strict := NewEngine(WithLogger(internal.NewDiscardLogger()), WithDefaultAlpha(0.04))
	r, err := strict.Run(src, Request{Kind: stats.TestOneSampleT, Columns: []string{"X"}, PopulationMean: mu(5)})
	require.NoError(t, err)
	assert.False(t, r.Significant)
	assert.Equal(t, 0.04, r.Alpha)

	r, err = strict.Run(src, Request{Kind: stats.TestOneSampleT, Columns: []string{"X"}, PopulationMean: mu(5), Alpha: 0.10})
	require.NoError(t, err)
	assert.True(t, r.Significant)
	assert.Contains(t, r.Decision, "reject H0")
}

func TestReportResults(t *testing.T) {
	src := numericTable(map[string][]string{
		"A": floats(1, 2, 3, 4, 5),
		"B": floats(2, 4, 6, 8, 10),
	}, "A", "B")
	r, err := newTestEngine().Run(src, Request{Kind: stats.TestTwoSampleT, Columns: []string{"A", "B"}})
	require.NoError(t, err)

	res := r.Results()
	assert.Contains(t, res, "t_statistic")
	assert.Contains(t, res, "p_value")
	assert.Equal(t, false, res["significant"])
	assert.Equal(t, 5, res["group:A:n"])
	assert.Equal(t, 3.0, res["group:A:mean"])
}

func TestReportResults_GroupKeysDoNotCollide(t *testing.T) {
	src := numericTable(map[string][]string{
		"pairs": floats(1, 2, 3, 4),
		"B":     floats(2, 2, 5, 4),
	}, "pairs", "B")
	r, err := newTestEngine().Run(src, Request{Kind: stats.TestPairedT, Columns: []string{"pairs", "B"}})
	require.NoError(t, err)

	res := r.Results()
	assert.Equal(t, 4, res["n_pairs"])
	assert.Equal(t, 4, res[stats.GroupKey("pairs", "n")])
	assert.Equal(t, 2.5, res[stats.GroupKey("pairs", "mean")])
}

func boolPtr(b bool) *bool { return &b }
