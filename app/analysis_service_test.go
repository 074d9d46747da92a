package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/domain/stats"
	"statcalc/internal"
	"statcalc/internal/analysis/hypothesis"
	"statcalc/internal/config"
	"statcalc/internal/report"
	"statcalc/internal/session"
	"statcalc/internal/testkit"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func newService(t *testing.T) *AnalysisService {
	t.Helper()
	store := testkit.NewStore(t)
	quiet := internal.NewDiscardLogger()
	sess := session.New(store, testkit.NewReader(), session.WithLogger(quiet))
	return NewAnalysisService(sess, store, config.AnalysisConfig{Alpha: 0.05, HistoryLimit: 10},
		WithLogger(quiet), WithClock(func() time.Time { return fixedNow }))
}

func loadSample(t *testing.T, svc *AnalysisService) session.Handle {
	t.Helper()
	path := testkit.WriteCSV(t, t.TempDir(), "scores.csv", [][]string{
		{"Before", "After", "Group"},
		{"10", "8", "a"},
		{"12", "11", "b"},
		{"9", "9", "a"},
		{"11", "10", "b"},
		{"14", "11", "a"},
	})
	h, err := svc.Session().Load(context.Background(), path)
	require.NoError(t, err)
	return h
}

func TestRunStatistics(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.RunStatistics(ctx, nil, nil)
	assert.ErrorIs(t, err, core.ErrNoDataset)

	h := loadSample(t, svc)
	out, err := svc.RunStatistics(ctx, nil, []string{"mean", "Standard Deviation", "count"})
	require.NoError(t, err)
	assert.Equal(t, "Analysis - 2024-03-01 12:30", out.Name)
	assert.Equal(t, h.ID, out.DatasetID)
	assert.Equal(t, []string{"Before", "After"}, out.Results.Columns())

	details, err := svc.Details(ctx, out.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mean", "StdDev", "Count"}, details.Info.Calculations)
	assert.Len(t, details.Rows, 6)

	mean, err := svc.QuerySummary(ctx, out.AnalysisID, "Before.Mean")
	require.NoError(t, err)
	assert.InDelta(t, 11.2, mean.Float(), 1e-12)

	_, err = svc.QuerySummary(ctx, out.AnalysisID, "Group.Mean")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.RunStatistics(ctx, nil, []string{"kurtosis"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = svc.RunStatistics(ctx, []string{"Group"}, nil)
	assert.ErrorIs(t, err, core.ErrEmptyNumericSet)
}

func TestRunTest_RecordsReport(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	loadSample(t, svc)

	out, err := svc.RunTest(ctx, hypothesis.Request{Kind: stats.TestPairedT, Columns: []string{"Before", "After"}})
	require.NoError(t, err)
	assert.Equal(t, 0.05, out.Report.Alpha)
	assert.InDelta(t, 0.0516060, out.Report.PValue.Float(), 1e-5)

	details, err := svc.Details(ctx, out.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "Paired t-test", details.Info.Name)
	assert.Equal(t, []string{"paired_t"}, details.Info.Calculations)

	p, err := svc.QuerySummary(ctx, out.AnalysisID, "p_value")
	require.NoError(t, err)
	assert.InDelta(t, out.Report.PValue.Float(), p.Float(), 1e-12)
	n, err := svc.QuerySummary(ctx, out.AnalysisID, "n_pairs")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.Int())
}

func TestRunTest_AlphaResolution(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	loadSample(t, svc)
	req := hypothesis.Request{Kind: stats.TestPairedT, Columns: []string{"Before", "After"}}

	require.NoError(t, svc.SetPreference(ctx, PrefAlpha, "0.1"))
	out, err := svc.RunTest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0.1, out.Report.Alpha)
	assert.True(t, out.Report.Significant)

	req.Alpha = 0.05
	out, err = svc.RunTest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0.05, out.Report.Alpha)
	assert.False(t, out.Report.Significant)

	req.Alpha = 0.5
	_, err = svc.RunTest(ctx, req)
	assert.ErrorIs(t, err, core.ErrInvalidAlpha)
}

func TestRunTest_EqualVarianceResolution(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	loadSample(t, svc)
	req := hypothesis.Request{Kind: stats.TestTwoSampleT, Columns: []string{"Before", "After"}}

	out, err := svc.RunTest(ctx, req)
	require.NoError(t, err)
	assert.False(t, out.Report.EqualVariance)
	assert.InDelta(t, 7.035, out.Report.DF.Float(), 1e-3)

	require.NoError(t, svc.SetPreference(ctx, PrefEqualVariance, "true"))
	out, err = svc.RunTest(ctx, req)
	require.NoError(t, err)
	assert.True(t, out.Report.EqualVariance)
	assert.Equal(t, 8.0, out.Report.DF.Float())

	welch := false
	req.EqualVariance = &welch
	out, err = svc.RunTest(ctx, req)
	require.NoError(t, err)
	assert.False(t, out.Report.EqualVariance)
	assert.InDelta(t, 7.035, out.Report.DF.Float(), 1e-3)
}

func TestRunTest_PreconditionLeavesHistory(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	loadSample(t, svc)

	_, err := svc.RunTest(ctx, hypothesis.Request{Kind: stats.TestTwoSampleT, Columns: []string{"Before", "Group"}})
	assert.ErrorIs(t, err, core.ErrNonNumericColumn)

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunTest_UsesCleanedLineage(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	loadSample(t, svc)

	cleaned, err := svc.Session().Clean(ctx, dataset.CleaningRequest{Operation: dataset.OpRemoveDuplicates})
	require.NoError(t, err)
	assert.Equal(t, dataset.CleaningNothingToDo, cleaned.Status)

	path := testkit.WriteCSV(t, t.TempDir(), "gaps.csv", [][]string{{"X", "Y"}, {"1", "2"}, {"", "3"}, {"4", "6"}, {"5", "9"}})
	_, err = svc.Session().Load(ctx, path)
	require.NoError(t, err)
	cleaned, err = svc.Session().Clean(ctx, dataset.CleaningRequest{Operation: dataset.OpDropMissingRows})
	require.NoError(t, err)

	out, err := svc.RunTest(ctx, hypothesis.Request{Kind: stats.TestTwoSampleT, Columns: []string{"X", "Y"}})
	require.NoError(t, err)
	assert.Equal(t, cleaned.DatasetID, out.DatasetID)
	assert.Equal(t, []int{3, 3}, out.Report.SampleSizes)
}

func TestHistoryAndPreferences(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	loadSample(t, svc)

	for i := 0; i < 4; i++ {
		_, err := svc.RunStatistics(ctx, []string{"Before"}, []string{"Mean"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.SetPreference(ctx, PrefHistoryLimit, "3"))
	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	history, err = svc.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	assert.ErrorIs(t, svc.SetPreference(ctx, PrefAlpha, "0.01"), core.ErrInvalidAlpha)
	assert.ErrorIs(t, svc.SetPreference(ctx, PrefHistoryLimit, "-2"), core.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetPreference(ctx, "", "x"), core.ErrInvalidInput)

	require.NoError(t, svc.SetPreference(ctx, "theme", "dark"))
	v, err := svc.GetPreference(ctx, "theme", "light")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
}

func TestReportAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	loadSample(t, svc)

	out, err := svc.RunStatistics(ctx, []string{"After"}, []string{"Max"})
	require.NoError(t, err)

	md, err := svc.Report(ctx, out.AnalysisID, report.FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "| After | Max | 11 |")

	require.NoError(t, svc.Delete(ctx, out.AnalysisID))
	_, err = svc.Details(ctx, out.AnalysisID)
	assert.ErrorIs(t, err, core.ErrAnalysisNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, out.AnalysisID), core.ErrAnalysisNotFound)

	datasets, err := svc.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "scores.csv", datasets[0].Name)
}
