package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"contactbook/internal/blob"
	"contactbook/internal/config"
	"contactbook/internal/core"
	"contactbook/internal/infra/logging"
	"contactbook/pkg/domain"
)

// env carries the state shared by every command of one invocation.
type env struct {
	stdout io.Writer
	stderr io.Writer

	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	registry *prometheus.Registry
	tracer   core.Tracer

	store domain.ClosableStore
	svc   *core.Service
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{stdout: stdout, stderr: stderr}
	return &cli.App{
		Name:            "contactbook",
		Usage:           "Manage a personal contact list",
		Version:         fullVersion(),
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		Flags:           globalFlags(),
		Before:          e.setup,
		After:           e.teardown,
		// Errors are reported once by run.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			e.listCommand(),
			e.searchCommand(),
			e.showCommand(),
			e.addCommand(),
			e.editCommand(),
			e.deleteCommand(),
			e.exportCommand(),
			e.importCommand(),
			e.exportsCommand(),
			versionCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file (default ./" + config.DefaultFile + " when present)"},
		&cli.StringFlag{Name: "driver", Usage: "storage driver: sqlite, postgres or memory"},
		&cli.StringFlag{Name: "db", Usage: "SQLite database file"},
		&cli.StringFlag{Name: "dsn", Usage: "PostgreSQL connection string"},
		&cli.StringFlag{Name: "init-script", Usage: "schema script run at startup instead of the bundled one"},
		&cli.StringFlag{Name: "blob-driver", Usage: "export storage driver: fs, s3 or memory"},
		&cli.StringFlag{Name: "blob-root", Usage: "export directory for the fs blob driver"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.BoolFlag{Name: "log-json", Usage: "log JSON lines"},
		&cli.StringFlag{Name: "log-file", Usage: "append logs to this file"},
		&cli.StringFlag{Name: "metrics-textfile", Usage: "write Prometheus metrics to this file on exit"},
		&cli.BoolFlag{Name: "trace", Usage: "write one JSON trace line per operation to stderr"},
	}
}

// setup resolves configuration and builds the logger. Stores are opened
// lazily by the commands that need them.
func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	override := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	override("driver", &cfg.Storage.Driver)
	override("db", &cfg.Storage.SQLitePath)
	override("dsn", &cfg.Storage.PostgresDSN)
	override("init-script", &cfg.Storage.InitScript)
	override("blob-driver", &cfg.Blob.Driver)
	override("blob-root", &cfg.Blob.FSRoot)
	override("log-level", &cfg.Log.Level)
	override("log-file", &cfg.Log.File)
	override("metrics-textfile", &cfg.Metrics.Textfile)
	if c.IsSet("log-json") {
		cfg.Log.JSON = c.Bool("log-json")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg

	level, _ := cfg.Log.SlogLevel()
	logger, closeLog, err := logging.New(logging.Options{
		Level:   level,
		JSON:    cfg.Log.JSON,
		File:    cfg.Log.File,
		Console: e.stderr,
	})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	e.logger, e.closeLog = logger, closeLog
	e.registry = prometheus.NewRegistry()
	if c.Bool("trace") {
		e.tracer = core.NewJSONTracer(e.stderr)
	}
	return nil
}

// service opens the configured store on first use.
func (e *env) service(c *cli.Context) (*core.Service, error) {
	if e.svc != nil {
		return e.svc, nil
	}
	store, err := core.OpenPersistentStore(c.Context, e.cfg.StorageConfig(), e.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", storageName(e.cfg), err)
	}
	metrics, err := core.NewPrometheusMetricsRecorder(e.registry)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	e.store = store
	e.svc = core.NewService(store,
		core.WithLogger(e.logger),
		core.WithMetricsRecorder(metrics),
		core.WithTracer(e.tracer),
		core.WithAuditRecorder(core.NewSlogAuditRecorder(e.logger)),
	)
	return e.svc, nil
}

func (e *env) blobStore(c *cli.Context) (blob.Store, error) {
	return blob.Open(c.Context, e.cfg.BlobConfig())
}

func (e *env) teardown(*cli.Context) error {
	var errs []error
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	if e.registry != nil && e.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(e.cfg.Metrics.Textfile, e.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if e.closeLog != nil {
		errs = append(errs, e.closeLog())
	}
	return errors.Join(errs...)
}

func storageName(cfg config.Config) string {
	if cfg.Storage.Driver == "" {
		return string(core.StorageSQLite)
	}
	return cfg.Storage.Driver
}

// userMessage renders err for the terminal. Storage failures are summarised;
// their detail goes to the log.
func userMessage(err error) string {
	switch domain.KindOf(err) {
	case domain.KindStorage:
		return "database error, the operation was not completed (see log for details)"
	default:
		return err.Error()
	}
}
