package migration

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"statcalc/internal"
)

func TestRunSQLite(t *testing.T) {
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	runner, err := NewRunner("sqlite", internal.NewDiscardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, runner.Run(ctx, db.DB))
	// idempotent
	require.NoError(t, runner.Run(ctx, db.DB))

	v, err := runner.Version(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'goose_db_version' ORDER BY name`))
	assert.Equal(t, []string{"analysis_history", "calculation_results", "datasets", "user_preferences"}, tables)
}

func TestNewRunnerUnknownDriver(t *testing.T) {
	_, err := NewRunner("mysql", nil)
	assert.Error(t, err)
}
