package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"statcalc/internal"
	"statcalc/internal/errors"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package state
var gooseMu sync.Mutex

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sql.DB) error
	Version(ctx context.Context, db *sql.DB) (int64, error)
}

// MigrationRunner applies the embedded schema migrations for one driver
type MigrationRunner struct {
	driver  string
	dialect string
	logger  *internal.Logger
}

// NewRunner creates a runner for the sqlite or postgres driver
func NewRunner(driver string, logger *internal.Logger) (*MigrationRunner, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	var dialect string
	switch driver {
	case "sqlite":
		dialect = "sqlite3"
	case "postgres":
		dialect = "postgres"
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("no migrations for driver %q", driver))
	}
	return &MigrationRunner{driver: driver, dialect: dialect, logger: logger.WithComponent("Migrate")}, nil
}

func (r *MigrationRunner) configure() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(r.logger)
	if err := goose.SetDialect(r.dialect); err != nil {
		return errors.Wrap(err, "failed to set dialect")
	}
	return nil
}

// Run executes all pending migrations
func (r *MigrationRunner) Run(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := r.configure(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, r.driver); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}
	return nil
}

// Version returns the current schema version
func (r *MigrationRunner) Version(ctx context.Context, db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := r.configure(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read schema version")
	}
	return v, nil
}
