package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statcalc/domain/stats"
)

func TestRenderStatistics(t *testing.T) {
	results := stats.PerColumnResults{
		{Column: "Units", Metrics: stats.Metrics{"Mean": 2.5, "Count": 4}},
	}
	calcs := []stats.Calculation{stats.CalcMean, stats.CalcCount}

	var buf bytes.Buffer
	require.NoError(t, renderStatistics(&buf, "table", "Analysis", results, calcs))
	assert.Contains(t, buf.String(), "Units")
	assert.Contains(t, buf.String(), "2.5")

	buf.Reset()
	require.NoError(t, renderStatistics(&buf, "json", "Analysis", results, calcs))
	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2.5, decoded["Units"]["Mean"])
}

func TestRenderTestReport(t *testing.T) {
	r := &stats.TestReport{
		Kind:          stats.TestANOVA,
		Title:         "One-way ANOVA",
		StatisticName: "f",
		Statistic:     27,
		DF:            2,
		DF2:           6,
		PValue:        0.001,
		Alpha:         0.05,
		Groups:        []stats.GroupStats{{Column: "G1", N: 3, Mean: 2, SD: 1}},
	}
	r.Classify()

	var buf bytes.Buffer
	require.NoError(t, renderTestReport(&buf, "table", r))
	out := buf.String()
	assert.Contains(t, out, "df (within)")
	assert.Contains(t, out, "reject H0 at alpha=0.05")
	assert.Contains(t, out, "G1")
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderHistory(&buf, "table", nil))
	assert.Equal(t, "(no analyses)\n", buf.String())
}
