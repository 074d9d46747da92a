package ports

import (
	"context"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
)

// DatasetRepository defines the interface for dataset registration and lookup
type DatasetRepository interface {
	// RegisterDataset creates an immutable dataset record and returns its id
	RegisterDataset(ctx context.Context, reg dataset.Registration) (core.DatasetID, error)
	GetDataset(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error)
	// GetAllDatasets lists every dataset, newest first
	GetAllDatasets(ctx context.Context) ([]*dataset.Dataset, error)
}
