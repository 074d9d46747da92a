package core

import (
	"errors"
	"testing"
)

// TestNewSessionIDUniqueness tests that NewSessionID generates unique identifiers
func TestNewSessionIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[SessionID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewSessionID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseAnalysisID tests analysis ID parsing
func TestParseAnalysisID(t *testing.T) {
	tests := []struct {
		input    string
		expected AnalysisID
		hasError bool
	}{
		{"12", AnalysisID(12), false},
		{" 7 ", AnalysisID(7), false},
		{"", 0, true},
		{"   ", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
	}

	for _, test := range tests {
		result, err := ParseAnalysisID(test.input)
		if test.hasError {
			if err == nil {
				t.Errorf("Expected error for input '%s', got nil", test.input)
			} else if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput for input '%s', got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %d for input '%s', got %d", test.expected, test.input, result)
		}
	}
}

func TestParseDatasetID(t *testing.T) {
	id, err := ParseDatasetID("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != DatasetID(42) || id.String() != "42" {
		t.Errorf("Expected dataset 42, got %s", id)
	}
	if DatasetID(0).IsZero() != true {
		t.Error("Expected zero dataset ID to report IsZero")
	}
}

func TestErrorHelpers(t *testing.T) {
	err := NewColumnNotFoundError("price", []string{"a", "b"})
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
	if !IsPreconditionError(err) {
		t.Error("column lookup failures are preconditions")
	}

	notFound := NewNotFoundError("analysis", 9)
	if !errors.Is(notFound, ErrAnalysisNotFound) || !IsNotFoundError(notFound) {
		t.Errorf("expected analysis not found, got %v", notFound)
	}

	cause := errors.New("disk I/O error")
	persist := NewPersistenceError("save analysis", cause)
	if !errors.Is(persist, ErrPersistence) || !errors.Is(persist, cause) {
		t.Errorf("persistence error should wrap both sentinel and cause: %v", persist)
	}
	if !IsStorageError(persist) {
		t.Error("expected storage error")
	}
}
