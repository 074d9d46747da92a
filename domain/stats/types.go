package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"statcalc/domain/core"
)

// ============================================================================
// CALCULATIONS
// ============================================================================

// Calculation names one descriptive aggregate
type Calculation string

const (
	CalcMean     Calculation = "Mean"
	CalcMedian   Calculation = "Median"
	CalcMode     Calculation = "Mode"
	CalcStdDev   Calculation = "StdDev"
	CalcVariance Calculation = "Variance"
	CalcMin      Calculation = "Min"
	CalcMax      Calculation = "Max"
	CalcCount    Calculation = "Count"
)

// AllCalculations lists the supported aggregates in display order
var AllCalculations = []Calculation{
	CalcMean, CalcMedian, CalcMode, CalcStdDev, CalcVariance, CalcMin, CalcMax, CalcCount,
}

var calculationAliases = map[string]Calculation{
	"mean":               CalcMean,
	"median":             CalcMedian,
	"mode":               CalcMode,
	"stddev":             CalcStdDev,
	"std":                CalcStdDev,
	"standard deviation": CalcStdDev,
	"variance":           CalcVariance,
	"var":                CalcVariance,
	"min":                CalcMin,
	"max":                CalcMax,
	"count":              CalcCount,
}

// ParseCalculation resolves a calculation name case-insensitively
func ParseCalculation(s string) (Calculation, error) {
	if c, ok := calculationAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown calculation %q", core.ErrInvalidInput, s)
}

// ParseCalculations resolves a list of names, keeping order and dropping repeats
func ParseCalculations(names []string) ([]Calculation, error) {
	seen := make(map[Calculation]bool, len(names))
	out := make([]Calculation, 0, len(names))
	for _, n := range names {
		c, err := ParseCalculation(n)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// ============================================================================
// RESULT SHAPES
// ============================================================================

// OverallColumn is the column sentinel for results that are not per column
const OverallColumn = "overall"

// Metrics maps a calculation type to a numeric-like leaf value.
// Leaves are float64, ints, bool, json.Number, *float64 or nil.
type Metrics map[string]any

// Keys returns the metric names sorted for deterministic iteration
func (m Metrics) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResultSet is the closed set of result shapes accepted by the store:
// PerColumnResults or ScalarResults.
type ResultSet interface {
	isResultSet()
	// Summary returns the JSON payload stored as results_summary
	Summary() any
}

// ColumnMetrics holds the metrics of one data column
type ColumnMetrics struct {
	Column  string
	Metrics Metrics
}

// PerColumnResults are metrics nested by data column, in column order
type PerColumnResults []ColumnMetrics

func (PerColumnResults) isResultSet() {}

// Summary nests metrics by column name
func (r PerColumnResults) Summary() any {
	out := make(map[string]map[string]any, len(r))
	for _, cm := range r {
		inner := make(map[string]any, len(cm.Metrics))
		for k, v := range cm.Metrics {
			inner[k] = jsonLeaf(v)
		}
		out[cm.Column] = inner
	}
	return out
}

// Get returns the metric for column/calculation
func (r PerColumnResults) Get(column string, calc Calculation) (any, bool) {
	for _, cm := range r {
		if cm.Column == column {
			v, ok := cm.Metrics[string(calc)]
			return v, ok
		}
	}
	return nil, false
}

// Columns returns the column order
func (r PerColumnResults) Columns() []string {
	out := make([]string, len(r))
	for i, cm := range r {
		out[i] = cm.Column
	}
	return out
}

// ScalarResults are flat metrics stored under the "overall" column
type ScalarResults Metrics

func (ScalarResults) isResultSet() {}

func (r ScalarResults) Summary() any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = jsonLeaf(v)
	}
	return out
}

// jsonLeaf keeps non-finite floats out of the JSON payload
func jsonLeaf(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil
		}
	case *float64:
		if f == nil {
			return nil
		}
		return jsonLeaf(*f)
	}
	return v
}

// Float returns a pointer to f, or nil when f is not finite
func Float(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ============================================================================
// PERSISTED RECORDS
// ============================================================================

// ResultRow is one stored metric
type ResultRow struct {
	AnalysisID      core.AnalysisID `json:"analysis_id" db:"analysis_id"`
	ColumnName      string          `json:"column_name" db:"column_name"`
	CalculationType string          `json:"calculation_type" db:"calculation_type"`
	Value           *float64        `json:"result_value" db:"result_value"`
}

// AnalysisRecord is a stored analysis run
type AnalysisRecord struct {
	ID             core.AnalysisID `json:"analysis_id"`
	DatasetID      core.DatasetID  `json:"dataset_id"`
	DatasetName    string          `json:"filename"`
	Name           string          `json:"analysis_name"`
	CreatedAt      time.Time       `json:"analysis_date"`
	Calculations   []string        `json:"calculations_performed"`
	ResultsSummary json.RawMessage `json:"results_summary"`
}

// AnalysisSummary is one history entry
type AnalysisSummary struct {
	ID           core.AnalysisID `json:"analysis_id"`
	Name         string          `json:"analysis_name"`
	CreatedAt    time.Time       `json:"analysis_date"`
	DatasetName  string          `json:"filename"`
	Calculations []string        `json:"calculations_performed"`
}

// AnalysisDetails pairs a record with its stored metric rows
type AnalysisDetails struct {
	Info AnalysisRecord `json:"info"`
	Rows []ResultRow    `json:"result_rows"`
}

// AnalysisInput is what callers forward to the store after running an engine
type AnalysisInput struct {
	DatasetID    core.DatasetID
	Name         string
	Calculations []string
	Results      ResultSet
}

// Preference is one key/value user setting
type Preference struct {
	Key   string `json:"preference_key" db:"preference_key"`
	Value string `json:"preference_value" db:"preference_value"`
}
