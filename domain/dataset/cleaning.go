package dataset

import (
	"fmt"
	"strings"
	"time"

	"statcalc/domain/core"
)

// CleaningOperation names a supported cleaning transform
type CleaningOperation string

const (
	OpDropMissingRows  CleaningOperation = "drop_missing_rows"
	OpFillMissing      CleaningOperation = "fill_missing"
	OpRemoveDuplicates CleaningOperation = "remove_duplicates"
)

// FillStrategy selects the replacement value for fill_missing
type FillStrategy string

const (
	FillMean   FillStrategy = "mean"
	FillMedian FillStrategy = "median"
	FillMode   FillStrategy = "mode"
)

// AppliesTo reports whether the strategy can fill a column of the given type
func (s FillStrategy) AppliesTo(t ColumnType) bool {
	switch s {
	case FillMean, FillMedian:
		return t == ColumnNumeric
	case FillMode:
		return true
	default:
		return false
	}
}

// CleaningRequest selects one operation and its parameters
type CleaningRequest struct {
	Operation CleaningOperation `json:"operation"`
	Strategy  FillStrategy      `json:"strategy,omitempty"`
}

// ParseCleaningRequest parses "op" or "op:strategy", e.g. "fill_missing:mean"
func ParseCleaningRequest(s string) (CleaningRequest, error) {
	op, strategy, _ := strings.Cut(strings.TrimSpace(s), ":")
	req := CleaningRequest{Operation: CleaningOperation(op), Strategy: FillStrategy(strategy)}
	return req, req.Validate()
}

// Validate checks the operation and strategy combination
func (r CleaningRequest) Validate() error {
	switch r.Operation {
	case OpDropMissingRows, OpRemoveDuplicates:
		if r.Strategy != "" {
			return fmt.Errorf("%w: %s takes no strategy", core.ErrInvalidInput, r.Operation)
		}
		return nil
	case OpFillMissing:
		switch r.Strategy {
		case FillMean, FillMedian, FillMode:
			return nil
		default:
			return fmt.Errorf("%w: fill strategy %q (want mean, median or mode)", core.ErrInvalidInput, r.Strategy)
		}
	default:
		return fmt.Errorf("%w: unknown cleaning operation %q", core.ErrInvalidInput, r.Operation)
	}
}

// Action is the label recorded in lineage, e.g. "fill_missing(mean)"
func (r CleaningRequest) Action() string {
	if r.Strategy != "" {
		return fmt.Sprintf("%s(%s)", r.Operation, r.Strategy)
	}
	return string(r.Operation)
}

// CleaningStatus tells applied transforms apart from no-ops
type CleaningStatus string

const (
	CleaningApplied     CleaningStatus = "applied"
	CleaningNothingToDo CleaningStatus = "nothing_to_do"
)

// CleaningReport is the before/after outcome of one cleaning call
type CleaningReport struct {
	Action          string          `json:"action"`
	Status          CleaningStatus  `json:"status"`
	RowsBefore      int             `json:"rows_before"`
	RowsAfter       int             `json:"rows_after"`
	MissingBefore   int             `json:"missing_before"`
	MissingAfter    int             `json:"missing_after"`
	AffectedColumns []string        `json:"affected_columns,omitempty"`
	DatasetID       core.DatasetID  `json:"dataset_id"`
	AnalysisID      core.AnalysisID `json:"analysis_id,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	Message         string          `json:"message,omitempty"`
}

// Changed reports whether the call mutated the session
func (r CleaningReport) Changed() bool {
	return r.Status == CleaningApplied
}
