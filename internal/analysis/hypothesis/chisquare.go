package hypothesis

import (
	"fmt"
	"math"
	"sort"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	domainstats "statcalc/domain/stats"
	"statcalc/internal/analysis"
)

// chiSquare runs Pearson's test of independence on the cross-tabulation of
// two columns over rows where both are present. No continuity correction.
func (e *Engine) chiSquare(src analysis.Source, req Request) (*domainstats.TestReport, error) {
	cols, err := requireColumns(src, req.Columns, 2, domainstats.TestChiSquare)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if len(c.Present()) == 0 {
			return nil, core.NewEmptyColumnError(c.Name)
		}
	}

	table, err := crossTabulate(cols[0], cols[1])
	if err != nil {
		return nil, err
	}

	r, c := len(table.RowLabels), len(table.ColumnLabels)
	df := float64((r - 1) * (c - 1))
	statistic := 0.0
	minExpected := math.Inf(1)
	for i := range table.Observed {
		for j := range table.Observed[i] {
			exp := table.Expected[i][j]
			if exp < minExpected {
				minExpected = exp
			}
			d := float64(table.Observed[i][j]) - exp
			statistic += d * d / exp
		}
	}
	// a single category on either side gives df 0 and p 1
	pValue := e.dist.ChiSquarePValue(statistic, df)

	check := &domainstats.AssumptionCheck{
		Name:        "expected frequencies",
		MinExpected: domainstats.Stat(minExpected),
		Threshold:   MinExpectedFrequency,
		Reliable:    minExpected >= MinExpectedFrequency,
	}
	if check.Reliable {
		check.Message = "all expected frequencies are at least 5"
	} else {
		check.Message = fmt.Sprintf("minimum expected frequency %.2f is below 5; the chi-square approximation may be unreliable", minExpected)
	}

	return &domainstats.TestReport{
		Columns:       columnNames(cols),
		SampleSizes:   []int{table.Total},
		StatisticName: "chi2",
		Statistic:     domainstats.Stat(statistic),
		DF:            domainstats.Stat(df),
		PValue:        domainstats.Stat(pValue),
		Contingency:   table,
		Assumption:    check,
	}, nil
}

// crossTabulate counts co-occurrences with categories in natural order
func crossTabulate(rowCol, colCol *dataset.Column) (*domainstats.ContingencyTable, error) {
	var pairs [][2]dataset.Value
	for i := range rowCol.Values {
		a, b := rowCol.Values[i], colCol.Values[i]
		if a.IsMissing() || b.IsMissing() {
			continue
		}
		pairs = append(pairs, [2]dataset.Value{a, b})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: %q and %q share no complete rows", core.ErrEmptyColumn, rowCol.Name, colCol.Name)
	}

	rowCats := categories(pairs, 0)
	colCats := categories(pairs, 1)
	rowIndex := indexOf(rowCats)
	colIndex := indexOf(colCats)

	observed := make([][]int, len(rowCats))
	for i := range observed {
		observed[i] = make([]int, len(colCats))
	}
	for _, p := range pairs {
		observed[rowIndex[p[0].String()]][colIndex[p[1].String()]]++
	}

	rowSums := make([]int, len(rowCats))
	colSums := make([]int, len(colCats))
	for i, row := range observed {
		for j, n := range row {
			rowSums[i] += n
			colSums[j] += n
		}
	}
	total := len(pairs)
	expected := make([][]float64, len(rowCats))
	for i := range expected {
		expected[i] = make([]float64, len(colCats))
		for j := range expected[i] {
			expected[i][j] = float64(rowSums[i]) * float64(colSums[j]) / float64(total)
		}
	}

	return &domainstats.ContingencyTable{
		RowColumn:    rowCol.Name,
		ColumnColumn: colCol.Name,
		RowLabels:    labels(rowCats),
		ColumnLabels: labels(colCats),
		Observed:     observed,
		Expected:     expected,
		Total:        total,
	}, nil
}

// categories returns the distinct values of one side of the pairs in natural order
func categories(pairs [][2]dataset.Value, side int) []dataset.Value {
	seen := make(map[string]bool)
	var out []dataset.Value
	for _, p := range pairs {
		key := p[side].String()
		if !seen[key] {
			seen[key] = true
			out = append(out, p[side])
		}
	}
	sort.Slice(out, func(i, j int) bool { return dataset.CompareValues(out[i], out[j]) < 0 })
	return out
}

func indexOf(values []dataset.Value) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v.String()] = i
	}
	return m
}

func labels(values []dataset.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
