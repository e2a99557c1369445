// Package sqlite provides the embedded SQLite backend for the person table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"contactbook/internal/infra/persistence/sqlstore"
	"contactbook/internal/schema"
	"contactbook/pkg/domain"

	msqlite "modernc.org/sqlite" // pure go sqlite driver
	sqlite3 "modernc.org/sqlite/lib"
)

// Compile-time contract assertion.
var _ domain.ClosableStore = (*Store)(nil)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "database/contacts.db"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is a SQLite-backed person store owning one database handle.
type Store struct {
	*sqlstore.Gateway
	db   *sql.DB
	path string
}

type options struct {
	initScript string
	logger     *slog.Logger
}

// Option customises Open.
type Option func(*options)

// WithInitScript reads the bootstrap script from path instead of the bundle.
func WithInitScript(path string) Option {
	return func(o *options) { o.initScript = path }
}

// WithLogger sets the logger used for bootstrap and statement tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open opens (creating if needed) the database at path and applies the init
// script. Bootstrap failures are logged, not returned.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		path = DefaultPath
	}
	if !isMemoryPath(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection for the process lifetime; an in-memory database only
	// lives as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	logger := o.logger.With("backend", "sqlite")
	_ = sqlstore.Bootstrap(ctx, db, schema.DialectSQLite, o.initScript, logger)
	if !isMemoryPath(path) {
		if abs, err := filepath.Abs(path); err == nil {
			logger.DebugContext(ctx, "database connected", "path", abs)
		}
	}

	gw := sqlstore.New(db,
		sqlstore.WithPlaceholder(sqlstore.PlaceholderQuestion),
		sqlstore.WithUniqueViolation(isUniqueViolation),
		sqlstore.WithLogger(logger),
	)
	return &Store{Gateway: gw, db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func isMemoryPath(path string) bool {
	return path == MemoryPath || strings.Contains(path, "mode=memory")
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
