package excel

import (
	"statcalc/adapters/datareadiness/coercer"
)

// ReaderConfig holds configuration for tabular file ingestion
type ReaderConfig struct {
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
	// Sheet names the workbook sheet to read; empty means the first sheet
	Sheet string `json:"sheet"`
}

// DefaultReaderConfig returns the default ingestion settings
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{CoercionConfig: coercer.DefaultCoercionConfig()}
}
