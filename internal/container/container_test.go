package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statcalc/internal"
	"statcalc/internal/config"
	"statcalc/internal/testkit"
)

func TestNew_WiresSessionAndStore(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, URL: filepath.Join(dir, "stats.db")},
		Analysis: config.AnalysisConfig{Alpha: 0.05, HistoryLimit: 10},
		Paths:    config.PathConfig{ReportDir: filepath.Join(dir, "reports")},
		Ingest:   config.IngestConfig{LenientNumbers: true},
	}
	ctx := context.Background()
	c, err := New(ctx, cfg, internal.NewDiscardLogger())
	require.NoError(t, err)
	defer c.Shutdown(ctx)

	path := testkit.WriteCSV(t, dir, "prices.csv", [][]string{{"Price"}, {"$1,200"}, {"$950"}})
	h, err := c.Session.Load(ctx, path)
	require.NoError(t, err)

	col, ok := c.Session.Column("Price")
	require.True(t, ok)
	assert.True(t, col.IsNumeric())

	stored, err := c.Store.GetDataset(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "prices.csv", stored.Name)
	assert.DirExists(t, filepath.Join(dir, "reports"))
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	assert.Error(t, err)
}
