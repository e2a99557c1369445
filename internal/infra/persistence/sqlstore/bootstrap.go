package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"contactbook/internal/schema"
)

// ApplyScript executes every statement of script in order and returns how
// many succeeded before the first failure.
func ApplyScript(ctx context.Context, db *sql.DB, script string) (int, error) {
	applied := 0
	for _, stmt := range schema.SplitStatements(script) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return applied, fmt.Errorf("execute statement %d: %w", applied+1, err)
		}
		applied++
	}
	return applied, nil
}

// Bootstrap loads and applies the init script for dialect. Failures are
// logged and returned; backends log them and keep running against whatever
// schema exists.
func Bootstrap(ctx context.Context, db *sql.DB, dialect schema.Dialect, overridePath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	script, source, err := schema.Load(dialect, overridePath)
	if err != nil {
		logger.WarnContext(ctx, "init script not loaded", "dialect", dialect, "error", err)
		return err
	}
	applied, err := ApplyScript(ctx, db, script)
	if err != nil {
		logger.WarnContext(ctx, "database initialisation incomplete",
			"source", source, "applied", applied, "error", err)
		return err
	}
	logger.DebugContext(ctx, "database initialised", "source", source, "statements", applied)
	return nil
}
