package container

import (
	"context"
	"fmt"
	"io"
	"os"

	"sheetdiff/adapters/excel"
	"sheetdiff/adapters/finalize"
	"sheetdiff/adapters/memory"
	"sheetdiff/adapters/postgres"
	"sheetdiff/app"
	"sheetdiff/internal"
	"sheetdiff/internal/api"
	"sheetdiff/internal/config"
	"sheetdiff/internal/errors"
	"sheetdiff/ports"

	"github.com/jmoiron/sqlx"
)

// historyLimit bounds the in-memory run history
const historyLimit = 1000

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; DB is nil when history is kept in memory
	DB      *sqlx.DB
	History ports.RunRepository

	// Workbook adapters
	Reader    *excel.DataReader
	Writer    *excel.DataWriter
	Finalizer ports.Finalizer

	CompareService *app.CompareService
	Hub            *api.ProgressHub
	Server         *api.Server
}

// NewLogger builds the application logger from the logging section
func NewLogger(cfg config.LoggingConfig, out io.Writer) *internal.Logger {
	if out == nil {
		out = os.Stderr
	}
	level, _ := internal.ParseLogLevel(cfg.Level)
	return internal.NewLogger(level, cfg.Format, out)
}

// ExcelConfig maps the configured palette onto the workbook adapters
func ExcelConfig(cfg *config.Config) (excel.Config, error) {
	ec := excel.DefaultConfig()
	ec.Palette = excel.Palette{
		Changed: cfg.Palette.Changed,
		Removed: cfg.Palette.Removed,
		Added:   cfg.Palette.Added,
	}.Normalize()
	if err := ec.Palette.Validate(); err != nil {
		return ec, errors.ConfigInvalid(err.Error())
	}
	return ec, nil
}

// New creates a new dependency injection container. It opens the history
// database when one is configured.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	c := &Container{Config: cfg, Logger: logger}

	if err := c.initHistory(ctx); err != nil {
		return nil, err
	}
	if err := c.initCompare(); err != nil {
		c.Shutdown(ctx)
		return nil, err
	}

	c.Hub = api.NewProgressHub(logger.With("sse"))
	c.Server = api.NewServer(cfg, c.CompareService, c.History, c.Hub, logger)

	logger.Info("Container initialized (history: %s)", c.historyKind())
	return c, nil
}

// initHistory picks the run repository
func (c *Container) initHistory(ctx context.Context) error {
	if c.Config.History.Driver == "" {
		c.History = memory.NewRunRepository(historyLimit)
		return nil
	}
	db, err := postgres.Open(ctx, c.Config.History.Driver, c.Config.History.DSN)
	if err != nil {
		return errors.Wrap(err, "failed to open run history")
	}
	c.DB = db
	c.History = postgres.NewRunRepository(db)
	return nil
}

// initCompare wires the workbook adapters into the comparison service
func (c *Container) initCompare() error {
	ec, err := ExcelConfig(c.Config)
	if err != nil {
		return err
	}
	c.Reader = excel.NewDataReader(ec, c.Logger)
	c.Writer = excel.NewDataWriter(ec, c.Logger)
	// each request decides whether its outputs are finalized
	c.Finalizer = finalize.New(true, c.Logger)
	c.CompareService = app.NewCompareService(c.Reader, c.Writer, c.Finalizer, c.History, c.Logger)
	return nil
}

func (c *Container) historyKind() string {
	if c.DB != nil {
		return c.Config.History.Driver
	}
	return "memory"
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Hub != nil {
		c.Hub.Close()
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
