package ports

import (
	"context"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/domain/stats"
)

// AnalysisRepository defines the interface for analysis storage operations
type AnalysisRepository interface {
	// SaveAnalysis stores the record and its normalized result rows in one transaction
	SaveAnalysis(ctx context.Context, in stats.AnalysisInput) (core.AnalysisID, error)
	// GetHistory returns the most recent analyses first
	GetHistory(ctx context.Context, limit int) ([]stats.AnalysisSummary, error)
	GetAnalysisDetails(ctx context.Context, id core.AnalysisID) (*stats.AnalysisDetails, error)
	DeleteAnalysis(ctx context.Context, id core.AnalysisID) error
}

// PreferenceRepository stores key/value user settings
type PreferenceRepository interface {
	SavePreference(ctx context.Context, key, value string) error
	// GetPreference returns def when the key is absent
	GetPreference(ctx context.Context, key, def string) (string, error)
}

// LineageRecorder is the slice of the store a data session needs to record
// loads and cleaning steps.
type LineageRecorder interface {
	RegisterDataset(ctx context.Context, reg dataset.Registration) (core.DatasetID, error)
	// RecordCleaning registers the derived dataset and its cleaning analysis
	// together; on error neither is stored.
	RecordCleaning(ctx context.Context, reg dataset.Registration, in stats.AnalysisInput) (core.DatasetID, core.AnalysisID, error)
}

// Store is the full persistence surface
type Store interface {
	DatasetRepository
	AnalysisRepository
	PreferenceRepository
	Close() error
}
