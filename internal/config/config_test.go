package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statcalc/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STATCALC_DB_DRIVER", "DATABASE_URL", "STATCALC_ALPHA", "STATCALC_HISTORY_LIMIT", "STATCALC_REPORT_DIR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "statistical_analysis.db", cfg.Database.URL)
	assert.Equal(t, DefaultAlpha, cfg.Analysis.Alpha)
	assert.False(t, cfg.Analysis.EqualVariance)
	assert.Equal(t, 10, cfg.Analysis.HistoryLimit)
	assert.Equal(t, "reports", cfg.Paths.ReportDir)
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STATCALC_DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadRejectsAlphaOutOfRange(t *testing.T) {
	t.Setenv("STATCALC_DB_DRIVER", "")
	t.Setenv("STATCALC_ALPHA", "0.01")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestValidAlpha(t *testing.T) {
	assert.True(t, ValidAlpha(0.05))
	assert.True(t, ValidAlpha(0.10))
	assert.False(t, ValidAlpha(0.01))
	assert.False(t, ValidAlpha(0.2))
}
