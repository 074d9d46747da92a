package session

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
)

// Summary returns the whole-table overview of the current table
func (s *DataSession) Summary() (dataset.Summary, error) {
	if s.current == nil {
		return dataset.Summary{}, core.ErrNoDataset
	}
	return s.current.Summary(), nil
}

// Search returns the indices of rows where any cell contains text, case-insensitively.
// An empty query matches every row.
func (s *DataSession) Search(text string) ([]int, error) {
	if s.current == nil {
		return nil, core.ErrNoDataset
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	rows := s.current.RowCount()
	out := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		if needle == "" || rowContains(s.current, i, needle) {
			out = append(out, i)
		}
	}
	return out, nil
}

func rowContains(t *dataset.Table, row int, needle string) bool {
	for _, c := range t.Columns {
		v := c.Values[row]
		if v.IsMissing() {
			continue
		}
		if strings.Contains(strings.ToLower(v.String()), needle) {
			return true
		}
	}
	return false
}

// ValidationSettings are the data quality thresholds
type ValidationSettings struct {
	MaxNullPercent float64 `json:"max_null_percent"`
	DetectOutliers bool    `json:"detect_outliers"`
	OutlierSD      float64 `json:"outlier_sd"`
}

// DefaultValidationSettings allows 10% missing per column and flags values beyond 3 SD
func DefaultValidationSettings() ValidationSettings {
	return ValidationSettings{MaxNullPercent: 10, DetectOutliers: true, OutlierSD: 3}
}

// NullViolation is a column whose missing share exceeds the limit
type NullViolation struct {
	Column  string  `json:"column"`
	Percent float64 `json:"percent"`
}

// OutlierCount is the number of values beyond the SD band in one column
type OutlierCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// ValidationReport is the outcome of Validate
type ValidationReport struct {
	Rows          int             `json:"rows"`
	NullColumns   []NullViolation `json:"null_violations"`
	DuplicateRows int             `json:"duplicate_rows"`
	Outliers      []OutlierCount  `json:"outliers,omitempty"`
	Passed        bool            `json:"passed"`
}

// Validate checks the current table against the settings without changing it
func (s *DataSession) Validate(settings ValidationSettings) (ValidationReport, error) {
	if s.current == nil {
		return ValidationReport{}, core.ErrNoDataset
	}
	t := s.current
	rows := t.RowCount()
	report := ValidationReport{Rows: rows}

	for _, c := range t.Columns {
		if rows == 0 {
			break
		}
		pct := 100 * float64(c.MissingCount()) / float64(rows)
		if pct > settings.MaxNullPercent {
			report.NullColumns = append(report.NullColumns, NullViolation{Column: c.Name, Percent: pct})
		}
	}

	report.DuplicateRows = rows - removeDuplicates(t).RowCount()

	if settings.DetectOutliers {
		band := settings.OutlierSD
		if band <= 0 {
			band = 3
		}
		for _, c := range t.Columns {
			if !c.IsNumeric() {
				continue
			}
			if n := countOutliers(c.Numbers(), band); n > 0 {
				report.Outliers = append(report.Outliers, OutlierCount{Column: c.Name, Count: n})
			}
		}
	}

	report.Passed = len(report.NullColumns) == 0 && report.DuplicateRows == 0 && len(report.Outliers) == 0
	return report, nil
}

func countOutliers(values []float64, band float64) int {
	if len(values) < 2 {
		return 0
	}
	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviationSample(values)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	n := 0
	for _, v := range values {
		if math.Abs(v-mean) > band*sd {
			n++
		}
	}
	return n
}
