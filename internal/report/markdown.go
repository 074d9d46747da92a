package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"statcalc/domain/stats"
)

// Statistics renders descriptive results as a column-by-calculation table
func Statistics(title string, results stats.PerColumnResults, calcs []stats.Calculation) string {
	if len(calcs) == 0 {
		calcs = stats.AllCalculations
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", title))

	b.WriteString("| Column |")
	for _, c := range calcs {
		b.WriteString(fmt.Sprintf(" %s |", c))
	}
	b.WriteString("\n|---|")
	for range calcs {
		b.WriteString("---:|")
	}
	b.WriteString("\n")

	for _, cm := range results {
		b.WriteString(fmt.Sprintf("| %s |", escape(cm.Column)))
		for _, c := range calcs {
			b.WriteString(fmt.Sprintf(" %s |", FormatValue(cm.Metrics[string(c)])))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Test renders a hypothesis test report
func Test(r *stats.TestReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	b.WriteString(fmt.Sprintf("Columns: %s\n\n", strings.Join(r.Columns, ", ")))

	if len(r.Groups) > 0 {
		b.WriteString("| Sample | n | Mean | SD |\n|---|---:|---:|---:|\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n", escape(g.Column), g.N, formatFloat(g.Mean.Float()), formatFloat(g.SD.Float())))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Result\n\n")
	b.WriteString(fmt.Sprintf("- Statistic: %s = %s\n", r.StatisticName, formatFloat(r.Statistic.Float())))
	if r.Kind == stats.TestANOVA {
		b.WriteString(fmt.Sprintf("- Degrees of freedom: %s, %s\n", formatFloat(r.DF.Float()), formatFloat(r.DF2.Float())))
	} else {
		b.WriteString(fmt.Sprintf("- Degrees of freedom: %s\n", formatFloat(r.DF.Float())))
	}
	b.WriteString(fmt.Sprintf("- p-value: %s\n", formatFloat(r.PValue.Float())))
	b.WriteString(fmt.Sprintf("- Alpha: %g\n", r.Alpha))
	if r.PopulationMean != nil {
		b.WriteString(fmt.Sprintf("- Hypothesised mean: %s\n", formatFloat(*r.PopulationMean)))
	}
	if r.Kind == stats.TestTwoSampleT {
		variant := "Welch (unequal variances)"
		if r.EqualVariance {
			variant = "Student (pooled variance)"
		}
		b.WriteString(fmt.Sprintf("- Variant: %s\n", variant))
	}
	if r.Kind == stats.TestPairedT {
		b.WriteString(fmt.Sprintf("- Pairs: %d\n", r.PairCount))
	}
	if r.MeanDifference != nil {
		b.WriteString(fmt.Sprintf("- Mean difference: %s (%s)\n", formatFloat(r.MeanDifference.Float()), r.DifferenceSign))
	}
	if r.EffectSize != nil {
		b.WriteString(fmt.Sprintf("- Cohen's d: %s\n", formatFloat(r.EffectSize.Float())))
	}
	if ci := r.ConfidenceInterval; ci != nil {
		b.WriteString(fmt.Sprintf("- %s%% CI: [%s, %s]\n", formatFloat(100*ci.Level.Float()), formatFloat(ci.Lower.Float()), formatFloat(ci.Upper.Float())))
	}
	b.WriteString(fmt.Sprintf("\n**Decision:** %s\n", r.Decision))

	if a := r.ANOVA; a != nil {
		b.WriteString("\n## Variance decomposition\n\n")
		b.WriteString("| Source | SS | df | MS |\n|---|---:|---:|---:|\n")
		b.WriteString(fmt.Sprintf("| Between | %s | %s | %s |\n", formatFloat(a.SSBetween.Float()), formatFloat(r.DF.Float()), formatFloat(a.MSBetween.Float())))
		b.WriteString(fmt.Sprintf("| Within | %s | %s | %s |\n", formatFloat(a.SSWithin.Float()), formatFloat(r.DF2.Float()), formatFloat(a.MSWithin.Float())))
	}

	if ct := r.Contingency; ct != nil {
		b.WriteString(fmt.Sprintf("\n## Contingency table (%s by %s)\n\n", escape(ct.RowColumn), escape(ct.ColumnColumn)))
		b.WriteString("| |")
		for _, l := range ct.ColumnLabels {
			b.WriteString(fmt.Sprintf(" %s |", escape(l)))
		}
		b.WriteString("\n|---|")
		for range ct.ColumnLabels {
			b.WriteString("---:|")
		}
		b.WriteString("\n")
		for i, l := range ct.RowLabels {
			b.WriteString(fmt.Sprintf("| %s |", escape(l)))
			for j := range ct.ColumnLabels {
				b.WriteString(fmt.Sprintf(" %d (%s) |", ct.Observed[i][j], strconv.FormatFloat(ct.Expected[i][j], 'f', 2, 64)))
			}
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("\nObserved (expected) counts, N = %d.\n", ct.Total))
	}

	if a := r.Assumption; a != nil && !a.Reliable {
		b.WriteString(fmt.Sprintf("\n> **Warning:** %s\n", a.Message))
	}
	return b.String()
}

// Analysis renders a stored analysis with its metric rows grouped by column
func Analysis(d *stats.AnalysisDetails) string {
	var b strings.Builder
	info := d.Info
	b.WriteString(fmt.Sprintf("# %s\n\n", info.Name))
	b.WriteString(fmt.Sprintf("- Analysis: %s\n", info.ID))
	b.WriteString(fmt.Sprintf("- Dataset: %s (%s)\n", escape(info.DatasetName), info.DatasetID))
	b.WriteString(fmt.Sprintf("- Date: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("- Calculations: %s\n\n", strings.Join(info.Calculations, ", ")))

	byColumn := make(map[string][]stats.ResultRow)
	var order []string
	for _, row := range d.Rows {
		if _, ok := byColumn[row.ColumnName]; !ok {
			order = append(order, row.ColumnName)
		}
		byColumn[row.ColumnName] = append(byColumn[row.ColumnName], row)
	}
	sort.Strings(order)

	b.WriteString("| Column | Calculation | Value |\n|---|---|---:|\n")
	for _, col := range order {
		for _, row := range byColumn[col] {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", escape(col), escape(row.CalculationType), FormatValue(row.Value)))
		}
	}
	return b.String()
}

// ToHTML renders markdown to a standalone HTML fragment
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// FormatValue renders a metric leaf for display; nil and non-finite values show as n/a
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "n/a"
	case float64:
		return formatFloat(x)
	case *float64:
		if x == nil {
			return "n/a"
		}
		return formatFloat(*x)
	case stats.Stat:
		return formatFloat(x.Float())
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// escape keeps cell text from breaking the table
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
