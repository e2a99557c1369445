// Package testutil provides shared fixtures, the store contract suite and
// architecture guards used by tests across the repository.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"contactbook/internal/infra/persistence/sqlite"
	"contactbook/pkg/domain"
)

// JaneDoe returns a fully populated contact.
func JaneDoe() domain.Person {
	return domain.Person{
		LastName:  "Doe",
		FirstName: "Jane",
		Nickname:  "JD",
		Phone:     "+1 555-0100",
		Address:   "1 Main St",
		Email:     "jane@example.com",
		BirthDate: domain.Date(1990, 5, 17),
	}
}

// JohnSmith returns a second, distinct contact.
func JohnSmith() domain.Person {
	return domain.Person{
		LastName:  "Smith",
		FirstName: "John",
		Nickname:  "Johnny",
		Phone:     "(020) 7946 0000",
		Email:     "john.smith@example.org",
	}
}

// Minimal returns a contact with only the required fields set.
func Minimal(first, last string) domain.Person {
	return domain.Person{FirstName: first, LastName: last, Nickname: first}
}

// OpenSQLite opens a throwaway SQLite store under t.TempDir and closes it on cleanup.
func OpenSQLite(t testing.TB) *sqlite.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database", "contacts.db")
	store, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
