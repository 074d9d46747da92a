package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"statcalc/domain/core"
	"statcalc/internal"
	"statcalc/internal/config"
	"statcalc/internal/migration"
)

// sqliteTimeLayout is fixed-width so text ordering matches time ordering
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

// Store is the SQL-backed persistence layer for datasets, analyses, result rows and preferences
type Store struct {
	db     *sqlx.DB
	driver string
	logger *internal.Logger
	now    func() time.Time
}

// Option customises a Store
type Option func(*Store)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open connects to the configured database and applies pending migrations
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *internal.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = sqlx.Open("sqlite", sqliteDSN(cfg.URL))
		if err == nil {
			// one connection keeps :memory: databases shared and serialises writers
			db.SetMaxOpenConns(1)
			err = db.PingContext(ctx)
		}
	case config.DriverPostgres:
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", core.ErrInvalidInput, cfg.Driver)
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, core.NewPersistenceError("open database", err)
	}

	runner, err := migration.NewRunner(cfg.Driver, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runner.Run(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, core.NewPersistenceError("migrate", err)
	}

	s := New(db, cfg.Driver, logger, opts...)
	s.logger.Info("Opened %s database", cfg.Driver)
	return s, nil
}

// New wraps an already-migrated connection
func New(db *sqlx.DB, driver string, logger *internal.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Store{
		db:     db,
		driver: driver,
		logger: logger.WithComponent("Store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sqliteDSN(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns "sqlite" or "postgres"
func (s *Store) Driver() string { return s.driver }

// SchemaVersion reports the applied migration version
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	runner, err := migration.NewRunner(s.driver, s.logger)
	if err != nil {
		return 0, err
	}
	return runner.Version(ctx, s.db.DB)
}

// withTx runs fn in one transaction, rolling back on any error
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewPersistenceError(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("%s: rollback failed: %v", op, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.NewPersistenceError(op, err)
	}
	return nil
}

// timestamp returns the current time in the representation the driver stores
func (s *Store) timestamp() any {
	t := s.now().UTC()
	if s.driver == config.DriverSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

// dbTime scans timestamps stored either natively or as text
type dbTime struct {
	time.Time
}

var textTimeLayouts = []string{
	sqliteTimeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range textTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
