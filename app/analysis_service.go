package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/domain/stats"
	"statcalc/internal"
	"statcalc/internal/analysis/descriptive"
	"statcalc/internal/analysis/hypothesis"
	"statcalc/internal/config"
	"statcalc/internal/report"
	"statcalc/internal/session"
	"statcalc/ports"
)

// Preference keys read by the service
const (
	PrefAlpha         = "alpha"
	PrefHistoryLimit  = "history_limit"
	PrefEqualVariance = "equal_variance"
)

// analysisNameLayout formats default analysis names, e.g. "Analysis - 2024-03-01 12:00"
const analysisNameLayout = "2006-01-02 15:04"

// AnalysisService runs the engines on the session's current table and
// records every result in the store.
type AnalysisService struct {
	session    *session.DataSession
	statistics *descriptive.Engine
	tests      *hypothesis.Engine
	store      ports.Store
	config     config.AnalysisConfig
	logger     *internal.Logger
	now        func() time.Time
}

// ServiceOption customises an AnalysisService
type ServiceOption func(*AnalysisService)

// WithClock overrides the time source used for analysis names
func WithClock(now func() time.Time) ServiceOption {
	return func(s *AnalysisService) { s.now = now }
}

// WithLogger sets the service logger
func WithLogger(l *internal.Logger) ServiceOption {
	return func(s *AnalysisService) { s.logger = l }
}

// NewAnalysisService wires the engines to a session and a store
func NewAnalysisService(sess *session.DataSession, store ports.Store, cfg config.AnalysisConfig, opts ...ServiceOption) *AnalysisService {
	s := &AnalysisService{
		session:    sess,
		statistics: descriptive.NewEngine(),
		store:      store,
		config:     cfg,
		logger:     internal.DefaultLogger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("AnalysisService")

	alpha := cfg.Alpha
	if alpha == 0 {
		alpha = hypothesis.DefaultAlpha
	}
	s.tests = hypothesis.NewEngine(hypothesis.WithDefaultAlpha(alpha), hypothesis.WithLogger(s.logger))
	return s
}

// Session returns the data session the service analyses
func (s *AnalysisService) Session() *session.DataSession { return s.session }

// Store returns the underlying persistence store
func (s *AnalysisService) Store() ports.Store { return s.store }

// StatisticsOutcome is a computed and recorded descriptive analysis
type StatisticsOutcome struct {
	AnalysisID   core.AnalysisID        `json:"analysis_id"`
	DatasetID    core.DatasetID         `json:"dataset_id"`
	Name         string                 `json:"analysis_name"`
	Calculations []stats.Calculation    `json:"calculations"`
	Results      stats.PerColumnResults `json:"-"`
	Summary      any                    `json:"results"`
}

// RunStatistics computes the named calculations over the selected columns of
// the current table and saves them. Empty selections mean everything.
func (s *AnalysisService) RunStatistics(ctx context.Context, columns []string, calculations []string) (*StatisticsOutcome, error) {
	datasetID, err := s.session.DatasetID()
	if err != nil {
		return nil, err
	}
	calcs, err := stats.ParseCalculations(calculations)
	if err != nil {
		return nil, err
	}
	if len(calcs) == 0 {
		calcs = stats.AllCalculations
	}

	results, err := s.statistics.Compute(s.session, columns, calcs)
	if err != nil {
		return nil, err
	}

	name := "Analysis - " + s.now().Format(analysisNameLayout)
	names := make([]string, len(calcs))
	for i, c := range calcs {
		names[i] = string(c)
	}
	id, err := s.store.SaveAnalysis(ctx, stats.AnalysisInput{
		DatasetID:    datasetID,
		Name:         name,
		Calculations: names,
		Results:      results,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("saved %s as analysis %s (%d columns)", name, id, len(results))
	return &StatisticsOutcome{
		AnalysisID:   id,
		DatasetID:    datasetID,
		Name:         name,
		Calculations: calcs,
		Results:      results,
		Summary:      results.Summary(),
	}, nil
}

// TestOutcome is a computed and recorded hypothesis test
type TestOutcome struct {
	AnalysisID core.AnalysisID   `json:"analysis_id"`
	DatasetID  core.DatasetID    `json:"dataset_id"`
	Report     *stats.TestReport `json:"report"`
}

// RunTest runs one hypothesis test on the current table and saves its report.
// Alpha and equal variance come from the request, else their preference, else configuration.
func (s *AnalysisService) RunTest(ctx context.Context, req hypothesis.Request) (*TestOutcome, error) {
	datasetID, err := s.session.DatasetID()
	if err != nil {
		return nil, err
	}
	if req.Alpha == 0 {
		if req.Alpha, err = s.preferredAlpha(ctx); err != nil {
			return nil, err
		}
	}
	if req.EqualVariance == nil {
		equal, err := s.preferredEqualVariance(ctx)
		if err != nil {
			return nil, err
		}
		req.EqualVariance = &equal
	}

	rep, err := s.tests.Run(s.session, req)
	if err != nil {
		return nil, err
	}

	id, err := s.store.SaveAnalysis(ctx, stats.AnalysisInput{
		DatasetID:    datasetID,
		Name:         rep.Title,
		Calculations: []string{string(rep.Kind)},
		Results:      rep.Results(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("saved %s as analysis %s: %s", rep.Title, id, rep.Decision)
	return &TestOutcome{AnalysisID: id, DatasetID: datasetID, Report: rep}, nil
}

// preferredAlpha returns 0 (engine default) when neither preference nor config set one
func (s *AnalysisService) preferredAlpha(ctx context.Context) (float64, error) {
	raw, err := s.store.GetPreference(ctx, PrefAlpha, "")
	if err != nil {
		return 0, err
	}
	if raw != "" {
		alpha, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if perr == nil && config.ValidAlpha(alpha) {
			return alpha, nil
		}
		s.logger.Warn("ignoring invalid alpha preference %q", raw)
	}
	return s.config.Alpha, nil
}

func (s *AnalysisService) preferredEqualVariance(ctx context.Context) (bool, error) {
	raw, err := s.store.GetPreference(ctx, PrefEqualVariance, "")
	if err != nil {
		return false, err
	}
	if v, perr := strconv.ParseBool(raw); perr == nil {
		return v, nil
	}
	return s.config.EqualVariance, nil
}

// History lists recent analyses. A non-positive limit uses the
// "history_limit" preference, else configuration.
func (s *AnalysisService) History(ctx context.Context, limit int) ([]stats.AnalysisSummary, error) {
	if limit <= 0 {
		raw, err := s.store.GetPreference(ctx, PrefHistoryLimit, "")
		if err != nil {
			return nil, err
		}
		if n, perr := strconv.Atoi(raw); perr == nil && n > 0 {
			limit = n
		} else {
			limit = s.config.HistoryLimit
		}
	}
	return s.store.GetHistory(ctx, limit)
}

// Details returns a stored analysis with its metric rows
func (s *AnalysisService) Details(ctx context.Context, id core.AnalysisID) (*stats.AnalysisDetails, error) {
	return s.store.GetAnalysisDetails(ctx, id)
}

// Delete removes an analysis and its rows
func (s *AnalysisService) Delete(ctx context.Context, id core.AnalysisID) error {
	if err := s.store.DeleteAnalysis(ctx, id); err != nil {
		return err
	}
	s.logger.Info("deleted analysis %s", id)
	return nil
}

// Datasets lists every registered dataset, newest first
func (s *AnalysisService) Datasets(ctx context.Context) ([]*dataset.Dataset, error) {
	return s.store.GetAllDatasets(ctx)
}

// Dataset returns one dataset record
func (s *AnalysisService) Dataset(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	return s.store.GetDataset(ctx, id)
}

// QuerySummary evaluates a gjson path against the stored results summary of
// an analysis, e.g. "Units.Mean" or "p_value". An empty path returns the
// whole summary.
func (s *AnalysisService) QuerySummary(ctx context.Context, id core.AnalysisID, path string) (gjson.Result, error) {
	details, err := s.store.GetAnalysisDetails(ctx, id)
	if err != nil {
		return gjson.Result{}, err
	}
	doc := gjson.ParseBytes(details.Info.ResultsSummary)
	if path == "" {
		return doc, nil
	}
	res := doc.Get(path)
	if !res.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: path %q in analysis %s", core.ErrNotFound, path, id)
	}
	return res, nil
}

// Report renders a stored analysis in the given format
func (s *AnalysisService) Report(ctx context.Context, id core.AnalysisID, format report.Format) ([]byte, error) {
	details, err := s.store.GetAnalysisDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.Render(report.Analysis(details), format), nil
}

// GetPreference returns the stored value or def
func (s *AnalysisService) GetPreference(ctx context.Context, key, def string) (string, error) {
	return s.store.GetPreference(ctx, key, def)
}

// SetPreference validates known keys before storing
func (s *AnalysisService) SetPreference(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: preference key cannot be empty", core.ErrInvalidInput)
	}
	switch key {
	case PrefAlpha:
		alpha, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || !config.ValidAlpha(alpha) {
			return fmt.Errorf("%w: alpha %q not in (%g, %g]", core.ErrInvalidAlpha, value, config.MinAlpha, config.MaxAlpha)
		}
	case PrefHistoryLimit:
		if n, err := strconv.Atoi(value); err != nil || n <= 0 {
			return fmt.Errorf("%w: history limit %q must be a positive integer", core.ErrInvalidInput, value)
		}
	case PrefEqualVariance:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: equal_variance %q must be true or false", core.ErrInvalidInput, value)
		}
	}
	return s.store.SavePreference(ctx, key, value)
}
