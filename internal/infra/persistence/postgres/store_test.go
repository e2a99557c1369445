package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"contactbook/internal/infra/persistence/postgres/testutil"
	"contactbook/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		if driverName != defaultDriver {
			return nil, fmt.Errorf("unexpected driver %q", driverName)
		}
		return db, nil
	})
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, conn
}

func TestNewStoreAppliesBundledScript(t *testing.T) {
	_, conn := openStub(t)
	execs, _ := conn.Statements()
	var tables, indexes int
	for _, stmt := range execs {
		up := strings.ToUpper(stmt)
		switch {
		case strings.Contains(up, "CREATE TABLE"):
			tables++
			if !strings.Contains(up, "BIGSERIAL") {
				t.Fatalf("expected postgres DDL, got %s", stmt)
			}
		case strings.Contains(up, "CREATE UNIQUE INDEX"), strings.Contains(up, "CREATE INDEX"):
			indexes++
		}
	}
	if tables != 1 || indexes != 2 {
		t.Fatalf("expected 1 table and 2 indexes, got %d/%d from %v", tables, indexes, execs)
	}
}

func TestNewStoreSurvivesBootstrapFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.ExecFunc = func(string, []driver.NamedValue) (int64, error) { return 0, errors.New("permission denied") }
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(context.Background(), "postgres://ignored")
	if err != nil {
		t.Fatalf("expected bootstrap failure to be tolerated, got %v", err)
	}
	_ = store.Close()
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	if _, err := NewStore(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestNewStoreOpenFailure(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("no driver") })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestCreateUsesDollarPlaceholders(t *testing.T) {
	store, conn := openStub(t)
	conn.QueryFunc = func(query string, args []driver.NamedValue) testutil.Result {
		if len(args) != 7 {
			return testutil.Result{Err: fmt.Errorf("expected 7 args, got %d", len(args))}
		}
		return testutil.Result{Columns: []string{"idperson"}, Rows: [][]driver.Value{{int64(41)}}}
	}
	created, err := store.Create(context.Background(), domain.Person{LastName: "Doe", FirstName: "Jane", Nickname: "JD"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 41 {
		t.Fatalf("expected generated id 41, got %d", created.ID)
	}
	_, queries := conn.Statements()
	last := queries[len(queries)-1]
	if !strings.Contains(last, "$7") || strings.Contains(last, "?") {
		t.Fatalf("expected rebound placeholders, got %s", last)
	}
}

func TestCreateMapsUniqueViolationToConflict(t *testing.T) {
	store, conn := openStub(t)
	conn.QueryFunc = func(string, []driver.NamedValue) testutil.Result {
		return testutil.Result{Err: &pgconn.PgError{Code: uniqueViolationCode, Message: "duplicate key value"}}
	}
	_, err := store.Create(context.Background(), domain.Person{LastName: "Doe", FirstName: "Jane", Nickname: "JD"})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatalf("expected wrapped 23505 to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation must not be reported as unique")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Fatalf("plain errors are not unique violations")
	}
}

func TestOverrideSQLOpenRestores(t *testing.T) {
	called := false
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		called = true
		return nil, errors.New("stub")
	})
	_, _ = sqlOpen("pgx", "")
	restore()
	if !called {
		t.Fatalf("expected override to be used")
	}
	if fmt.Sprintf("%p", sqlOpen) != fmt.Sprintf("%p", sql.Open) {
		t.Fatalf("expected sql.Open restored")
	}
}
