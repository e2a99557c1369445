// Package postgres provides a Postgres-backed person store. It shares the SQL
// mapping with the SQLite backend and only differs in driver, placeholder
// style and bootstrap script.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"contactbook/internal/infra/persistence/sqlstore"
	"contactbook/internal/schema"
	"contactbook/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.ClosableStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/contactbook?sslmode=disable"

	uniqueViolationCode = "23505"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists persons to Postgres.
type Store struct {
	*sqlstore.Gateway
	db *sql.DB
}

type options struct {
	initScript string
	logger     *slog.Logger
}

// Option customises NewStore.
type Option func(*options)

// WithInitScript reads the bootstrap script from path instead of the bundle.
func WithInitScript(path string) Option {
	return func(o *options) { o.initScript = path }
}

// WithLogger sets the logger used for bootstrap and statement tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewStore opens a Postgres-backed store using dsn (falls back to DefaultDSN)
// and applies the init script. Bootstrap failures are logged, not returned.
func NewStore(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger := o.logger.With("backend", "postgres")
	_ = sqlstore.Bootstrap(ctx, db, schema.DialectPostgres, o.initScript, logger)

	gw := sqlstore.New(db,
		sqlstore.WithPlaceholder(sqlstore.PlaceholderDollar),
		sqlstore.WithUniqueViolation(isUniqueViolation),
		sqlstore.WithLogger(logger),
	)
	return &Store{Gateway: gw, db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sql.Open function for tests and returns a restore func.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
