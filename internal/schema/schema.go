// Package schema exposes the bundled person table DDL for the SQL backends
// and the script loader used during bootstrap.
package schema

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed sqlite.sql
var sqliteDDL string

//go:embed postgres.sql
var postgresDDL string

// Dialect names a SQL engine with its own bundled script.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLite returns the bundled SQLite DDL.
func SQLite() string { return sqliteDDL }

// Postgres returns the bundled Postgres DDL.
func Postgres() string { return postgresDDL }

// Bundled returns the embedded script for dialect.
func Bundled(d Dialect) (string, bool) {
	switch d {
	case DialectSQLite:
		return sqliteDDL, true
	case DialectPostgres:
		return postgresDDL, true
	default:
		return "", false
	}
}

// Load returns the initialisation script for dialect. A non-empty override
// path is read from the filesystem and takes precedence over the bundle; a
// dialect without a bundle requires the override.
func Load(d Dialect, overridePath string) (script string, source string, err error) {
	if overridePath != "" {
		b, err := os.ReadFile(overridePath)
		if err != nil {
			return "", overridePath, fmt.Errorf("read init script: %w", err)
		}
		return string(b), overridePath, nil
	}
	if s, ok := Bundled(d); ok {
		return s, "embedded:" + string(d) + ".sql", nil
	}
	return "", "", fmt.Errorf("no bundled init script for dialect %q", d)
}

// SplitStatements splits a semicolon-terminated script into executable statements.
// It drops blank lines and single-line comments that start with "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" && stmt != ";" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}
