package container

import (
	"context"
	"fmt"

	"statcalc/adapters/excel"
	"statcalc/adapters/sqlstore"
	"statcalc/app"
	"statcalc/internal"
	"statcalc/internal/artifacts"
	"statcalc/internal/config"
	"statcalc/internal/report"
	"statcalc/internal/session"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	Store  *sqlstore.Store
	Reader *excel.DataReader
	Blobs  *artifacts.LocalBlobStore

	// Application
	Session  *session.DataSession
	Service  *app.AnalysisService
	Exporter *report.Exporter
}

// New opens the store, runs migrations and wires the session and services
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	c := &Container{Config: cfg, Logger: logger}

	store, err := sqlstore.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	c.Store = store

	c.initIngest()
	if err := c.initReports(); err != nil {
		_ = c.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize reports: %w", err)
	}

	c.Session = session.New(c.Store, c.Reader, session.WithLogger(logger))
	c.Service = app.NewAnalysisService(c.Session, c.Store, cfg.Analysis, app.WithLogger(logger))

	logger.WithComponent("Container").Debug("initialized (driver=%s, session=%s)", store.Driver(), c.Session.SessionID())
	return c, nil
}

// initIngest builds the file reader from the ingest settings
func (c *Container) initIngest() {
	readerCfg := excel.DefaultReaderConfig()
	readerCfg.CoercionConfig.Lenient = c.Config.Ingest.LenientNumbers
	readerCfg.Sheet = c.Config.Ingest.Sheet
	c.Reader = excel.NewDataReader(readerCfg, c.Logger)
}

// initReports prepares the report directory
func (c *Container) initReports() error {
	blobs, err := artifacts.NewLocalBlobStore(c.Config.Paths.ReportDir)
	if err != nil {
		return err
	}
	c.Blobs = blobs
	c.Exporter = report.NewExporter(blobs)
	return nil
}

// Shutdown closes the store
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
