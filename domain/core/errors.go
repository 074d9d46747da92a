package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParse             = errors.New("malformed tabular content")

	// Test and statistics preconditions
	ErrColumnNotFound     = errors.New("column not found")
	ErrSameColumn         = errors.New("two distinct columns are required")
	ErrNonNumericColumn   = errors.New("column is not numeric")
	ErrEmptyColumn        = errors.New("column has no values after dropping missing data")
	ErrInsufficientGroups = errors.New("insufficient groups")
	ErrEmptyNumericSet    = errors.New("no numeric columns to aggregate")
	ErrInvalidAlpha       = errors.New("significance level out of range")
	ErrInvalidInput       = errors.New("invalid input")

	// Session errors
	ErrNoDataset  = errors.New("no dataset loaded")
	ErrNoOriginal = errors.New("no original dataset to reset to")

	// Storage errors
	ErrNotFound         = errors.New("resource not found")
	ErrDatasetNotFound  = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis", ErrNotFound)
	ErrSerialization    = errors.New("result value is not numeric")
	ErrPersistence      = errors.New("persistence failure")
)

// Error constructors with context
func NewColumnNotFoundError(column string, available []string) error {
	return fmt.Errorf("%w: %q (available: %s)", ErrColumnNotFound, column, strings.Join(available, ", "))
}

func NewNonNumericColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrNonNumericColumn, column)
}

func NewEmptyColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrEmptyColumn, column)
}

func NewSameColumnError(column string) error {
	return fmt.Errorf("%w: %q was supplied twice", ErrSameColumn, column)
}

func NewInsufficientGroupsError(got, want int) error {
	return fmt.Errorf("%w: %d selected, at least %d required", ErrInsufficientGroups, got, want)
}

func NewNotFoundError(resource string, id int64) error {
	return fmt.Errorf("%w with id %d", resource2err(resource), id)
}

func NewPersistenceError(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, cause)
}

func resource2err(resource string) error {
	switch resource {
	case "dataset":
		return ErrDatasetNotFound
	case "analysis":
		return ErrAnalysisNotFound
	default:
		return fmt.Errorf("%w: %s", ErrNotFound, resource)
	}
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPreconditionError reports whether err is a recoverable input or precondition failure.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrSameColumn) ||
		errors.Is(err, ErrNonNumericColumn) ||
		errors.Is(err, ErrEmptyColumn) ||
		errors.Is(err, ErrInsufficientGroups) ||
		errors.Is(err, ErrEmptyNumericSet) ||
		errors.Is(err, ErrInvalidAlpha) ||
		errors.Is(err, ErrInvalidInput)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrParse)
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrSerialization)
}
