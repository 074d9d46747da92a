package ports

import (
	"context"

	"statcalc/domain/dataset"
)

// TableReader parses a data file into an in-memory table
type TableReader interface {
	// ReadTable returns core.ErrUnsupportedFormat for unknown extensions
	// and core.ErrParse for malformed content.
	ReadTable(ctx context.Context, path string) (*dataset.Table, error)
}
