package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	domainstats "statcalc/domain/stats"
)

const cleanedSuffix = "_cleaned"

// Clean applies one cleaning operation to the current table. A transform that
// changes nothing reports nothing_to_do and writes no records. Otherwise a
// derived dataset and a cleaning analysis are recorded in one transaction
// before the current table is replaced; if recording fails nothing is stored
// and the session is left as it was.
func (s *DataSession) Clean(ctx context.Context, req dataset.CleaningRequest) (dataset.CleaningReport, error) {
	if err := req.Validate(); err != nil {
		return dataset.CleaningReport{}, err
	}
	if s.current == nil {
		return dataset.CleaningReport{}, core.ErrNoDataset
	}

	before := s.current
	next, affected := applyCleaning(before, req)

	report := dataset.CleaningReport{
		Action:          req.Action(),
		RowsBefore:      before.RowCount(),
		RowsAfter:       next.RowCount(),
		MissingBefore:   before.MissingCount(),
		MissingAfter:    next.MissingCount(),
		AffectedColumns: affected,
		DatasetID:       s.lineage.ID,
		Timestamp:       s.now().UTC(),
	}
	if !changed(report, affected) {
		report.Status = dataset.CleaningNothingToDo
		report.AffectedColumns = nil
		report.Message = "no rows or cells changed"
		s.logger.Debug("%s: nothing to do", report.Action)
		return report, nil
	}
	report.Status = dataset.CleaningApplied

	parent := s.lineage
	reg := dataset.NewRegistration(
		strings.TrimSuffix(parent.Name, cleanedSuffix)+cleanedSuffix,
		fmt.Sprintf("derived:%s:%s", parent.ID, report.Action),
		next,
	)
	reg.Description = fmt.Sprintf("%s of dataset %s in session %s", report.Action, parent.ID, s.id)
	derivedID, analysisID, err := s.recorder.RecordCleaning(ctx, reg, domainstats.AnalysisInput{
		Name:         "Cleaning - " + report.Action,
		Calculations: []string{report.Action},
		Results: domainstats.ScalarResults{
			"rows_before":    report.RowsBefore,
			"rows_after":     report.RowsAfter,
			"missing_before": report.MissingBefore,
			"missing_after":  report.MissingAfter,
		},
	})
	if err != nil {
		return dataset.CleaningReport{}, fmt.Errorf("record cleaning: %w", err)
	}

	s.current = next
	s.lineage = Handle{
		ID:          derivedID,
		Name:        reg.Name,
		SourcePath:  reg.SourceLabel,
		Rows:        reg.RowCount,
		Columns:     reg.ColumnCount,
		ColumnNames: reg.ColumnNames,
	}
	report.DatasetID = derivedID
	report.AnalysisID = analysisID
	report.Message = fmt.Sprintf("rows %d -> %d, missing %d -> %d",
		report.RowsBefore, report.RowsAfter, report.MissingBefore, report.MissingAfter)

	s.logger.Info("%s applied: %s (dataset %s -> %s)", report.Action, report.Message, parent.ID, derivedID)
	return report, nil
}

func changed(r dataset.CleaningReport, affected []string) bool {
	return r.RowsBefore != r.RowsAfter || r.MissingBefore != r.MissingAfter || len(affected) > 0
}

// applyCleaning returns the transformed copy and the columns whose cells changed.
// The input table is never modified.
func applyCleaning(t *dataset.Table, req dataset.CleaningRequest) (*dataset.Table, []string) {
	switch req.Operation {
	case dataset.OpDropMissingRows:
		return t.FilterRows(func(i int) bool { return !t.RowHasMissing(i) }), nil
	case dataset.OpRemoveDuplicates:
		return removeDuplicates(t), nil
	case dataset.OpFillMissing:
		return fillMissing(t, req.Strategy)
	}
	return t, nil
}

// removeDuplicates keeps the first occurrence of every exact full row
func removeDuplicates(t *dataset.Table) *dataset.Table {
	seen := make(map[string]bool, t.RowCount())
	return t.FilterRows(func(i int) bool {
		key := t.RowKey(i)
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
}

// fillMissing replaces missing cells per column. Mean and median skip
// categorical columns; columns with no present values stay missing.
func fillMissing(t *dataset.Table, strategy dataset.FillStrategy) (*dataset.Table, []string) {
	out := t.Clone()
	var affected []string
	for _, col := range out.Columns {
		if col.MissingCount() == 0 || !strategy.AppliesTo(col.Type) {
			continue
		}
		fill, ok := fillValue(col, strategy)
		if !ok {
			continue
		}
		for i, v := range col.Values {
			if v.IsMissing() {
				col.Values[i] = fill
			}
		}
		affected = append(affected, col.Name)
	}
	return out, affected
}

func fillValue(col *dataset.Column, strategy dataset.FillStrategy) (dataset.Value, bool) {
	switch strategy {
	case dataset.FillMean:
		m, err := stats.Mean(col.Numbers())
		if err != nil {
			return dataset.Value{}, false
		}
		return dataset.Number(m), true
	case dataset.FillMedian:
		m, err := stats.Median(col.Numbers())
		if err != nil {
			return dataset.Value{}, false
		}
		return dataset.Number(m), true
	case dataset.FillMode:
		return modeValue(col.Present())
	}
	return dataset.Value{}, false
}

// modeValue returns the most frequent cell; ties go to the first in natural order
func modeValue(present []dataset.Value) (dataset.Value, bool) {
	if len(present) == 0 {
		return dataset.Value{}, false
	}
	sorted := make([]dataset.Value, len(present))
	copy(sorted, present)
	sort.SliceStable(sorted, func(i, j int) bool { return dataset.CompareValues(sorted[i], sorted[j]) < 0 })

	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Equal(sorted[i]) {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best, true
}
