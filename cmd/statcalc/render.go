package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"statcalc/domain/dataset"
	"statcalc/domain/stats"
	"statcalc/internal/report"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatistics(w io.Writer, format, title string, results stats.PerColumnResults, calcs []stats.Calculation) error {
	switch format {
	case "json":
		return renderJSON(w, results.Summary())
	case "md", "markdown":
		_, err := io.WriteString(w, report.Statistics(title, results, calcs))
		return err
	}

	t := newTable(w)
	t.SetTitle(title)
	header := table.Row{"Column"}
	for _, c := range calcs {
		header = append(header, string(c))
	}
	t.AppendHeader(header)
	for _, cm := range results {
		row := table.Row{cm.Column}
		for _, c := range calcs {
			row = append(row, report.FormatValue(cm.Metrics[string(c)]))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

func renderTestReport(w io.Writer, format string, r *stats.TestReport) error {
	switch format {
	case "json":
		return renderJSON(w, r)
	case "md", "markdown":
		_, err := io.WriteString(w, report.Test(r))
		return err
	}

	if len(r.Groups) > 0 {
		g := newTable(w)
		g.SetTitle(r.Title)
		g.AppendHeader(table.Row{"Sample", "n", "Mean", "SD"})
		for _, gs := range r.Groups {
			g.AppendRow(table.Row{gs.Column, gs.N, report.FormatValue(gs.Mean), report.FormatValue(gs.SD)})
		}
		g.Render()
	}

	if ct := r.Contingency; ct != nil {
		c := newTable(w)
		c.SetTitle(fmt.Sprintf("%s by %s (observed)", ct.RowColumn, ct.ColumnColumn))
		header := table.Row{""}
		for _, l := range ct.ColumnLabels {
			header = append(header, l)
		}
		c.AppendHeader(header)
		for i, l := range ct.RowLabels {
			row := table.Row{l}
			for _, n := range ct.Observed[i] {
				row = append(row, n)
			}
			c.AppendRow(row)
		}
		c.Render()
	}

	t := newTable(w)
	t.AppendRow(table.Row{"Statistic (" + r.StatisticName + ")", report.FormatValue(r.Statistic)})
	t.AppendRow(table.Row{"df", report.FormatValue(r.DF)})
	if r.Kind == stats.TestANOVA {
		t.AppendRow(table.Row{"df (within)", report.FormatValue(r.DF2)})
	}
	t.AppendRow(table.Row{"p-value", report.FormatValue(r.PValue)})
	t.AppendRow(table.Row{"alpha", r.Alpha})
	if r.MeanDifference != nil {
		t.AppendRow(table.Row{"Mean difference", report.FormatValue(*r.MeanDifference) + " (" + r.DifferenceSign + ")"})
	}
	if r.EffectSize != nil {
		t.AppendRow(table.Row{"Cohen's d", report.FormatValue(*r.EffectSize)})
	}
	if ci := r.ConfidenceInterval; ci != nil {
		t.AppendRow(table.Row{"CI", fmt.Sprintf("[%s, %s]", report.FormatValue(ci.Lower), report.FormatValue(ci.Upper))})
	}
	t.AppendRow(table.Row{"Decision", r.Decision})
	t.Render()

	if a := r.Assumption; a != nil && !a.Reliable {
		fmt.Fprintf(w, "warning: %s\n", a.Message)
	}
	return nil
}

func renderHistory(w io.Writer, format string, history []stats.AnalysisSummary) error {
	if format == "json" {
		return renderJSON(w, history)
	}
	if len(history) == 0 {
		fmt.Fprintln(w, "(no analyses)")
		return nil
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Date", "Dataset", "Calculations"})
	for _, h := range history {
		t.AppendRow(table.Row{h.ID, h.Name, h.CreatedAt.Local().Format("2006-01-02 15:04:05"), h.DatasetName, fmt.Sprint(h.Calculations)})
	}
	if format == "md" || format == "markdown" {
		t.RenderMarkdown()
		return nil
	}
	t.Render()
	return nil
}

func renderDetails(w io.Writer, format string, d *stats.AnalysisDetails) error {
	switch format {
	case "json":
		return renderJSON(w, d)
	case "md", "markdown":
		_, err := io.WriteString(w, report.Analysis(d))
		return err
	}
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("%s (analysis %s, dataset %s)", d.Info.Name, d.Info.ID, d.Info.DatasetName))
	t.AppendHeader(table.Row{"Column", "Calculation", "Value"})
	for _, r := range d.Rows {
		t.AppendRow(table.Row{r.ColumnName, r.CalculationType, report.FormatValue(r.Value)})
	}
	t.Render()
	return nil
}

func renderDatasets(w io.Writer, format string, datasets []*dataset.Dataset) error {
	if format == "json" {
		return renderJSON(w, datasets)
	}
	if len(datasets) == 0 {
		fmt.Fprintln(w, "(no datasets)")
		return nil
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Uploaded", "Rows", "Columns", "Source"})
	for _, d := range datasets {
		t.AppendRow(table.Row{d.ID, d.Name, d.CreatedAt.Local().Format("2006-01-02 15:04:05"), d.RowCount, d.ColumnCount, d.SourcePath})
	}
	if format == "md" || format == "markdown" {
		t.RenderMarkdown()
		return nil
	}
	t.Render()
	return nil
}
