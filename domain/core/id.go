package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DatasetID is the store-assigned identity of a dataset record
type DatasetID int64

// AnalysisID is the store-assigned identity of an analysis record
type AnalysisID int64

func (id DatasetID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id AnalysisID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsZero reports whether the id was never assigned
func (id DatasetID) IsZero() bool  { return id == 0 }
func (id AnalysisID) IsZero() bool { return id == 0 }

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	n, err := parsePositiveID(s)
	if err != nil {
		return 0, fmt.Errorf("invalid dataset id: %w", err)
	}
	return DatasetID(n), nil
}

// ParseAnalysisID parses a string into AnalysisID
func ParseAnalysisID(s string) (AnalysisID, error) {
	n, err := parsePositiveID(s)
	if err != nil {
		return 0, fmt.Errorf("invalid analysis id: %w", err)
	}
	return AnalysisID(n), nil
}

func parsePositiveID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidInput, n)
	}
	return n, nil
}

// SessionID identifies one DataSession instance in logs and lineage descriptions
type SessionID string

// NewSessionID creates a new unique identifier using UUID v7 for time-ordered generation
func NewSessionID() SessionID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return SessionID(id.String())
}

func (id SessionID) String() string { return string(id) }

// IsEmpty checks if the ID is empty
func (id SessionID) IsEmpty() bool {
	return id == ""
}
