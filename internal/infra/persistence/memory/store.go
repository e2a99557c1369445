// Package memory provides an in-memory person store used for tests and
// ephemeral runs. Every read and write copies values, so callers never share
// state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-memdb"

	"contactbook/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.ClosableStore = (*Store)(nil)

const (
	tablePerson = "person"
	indexID     = "id"
	indexName   = "name"
)

type record struct {
	ID      int64
	NameKey string
	Person  domain.Person
}

func nameKey(first, last string) string {
	return strings.ToLower(strings.TrimSpace(first)) + "\x1f" + strings.ToLower(strings.TrimSpace(last))
}

func dbSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tablePerson: {
				Name: tablePerson,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					indexName: {
						Name:    indexName,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "NameKey"},
					},
				},
			},
		},
	}
}

// Store implements domain.PersonStore on go-memdb.
type Store struct {
	db     *memdb.MemDB
	nextID int64 // guarded by the memdb writer lock
}

// NewStore returns an empty store.
func NewStore() *Store {
	db, err := memdb.NewMemDB(dbSchema())
	if err != nil {
		// the schema is static; a failure here is a programming error
		panic(fmt.Sprintf("memory: invalid schema: %v", err))
	}
	return &Store{db: db}
}

// Close is a no-op kept for parity with the SQL backends.
func (s *Store) Close() error { return nil }

// Create stores a copy of p under a fresh identifier.
func (s *Store) Create(_ context.Context, p domain.Person) (domain.Person, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	key := nameKey(p.FirstName, p.LastName)
	if raw, err := txn.First(tablePerson, indexName, key); err != nil {
		return domain.Person{}, domain.NewStorageError("create", err)
	} else if raw != nil {
		return domain.Person{}, domain.NewConflictError("create", "contact already exists: "+p.FullName(), nil)
	}

	s.nextID++
	stored := p.Clone()
	stored.ID = s.nextID
	if err := txn.Insert(tablePerson, &record{ID: stored.ID, NameKey: key, Person: stored}); err != nil {
		s.nextID--
		return domain.Person{}, domain.NewStorageError("create", err)
	}
	txn.Commit()
	return stored.Clone(), nil
}

// FindByID returns a copy of the stored person.
func (s *Store) FindByID(_ context.Context, id int64) (domain.Person, bool, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tablePerson, indexID, id)
	if err != nil {
		return domain.Person{}, false, domain.NewStorageError("find_by_id", err)
	}
	if raw == nil {
		return domain.Person{}, false, nil
	}
	return raw.(*record).Person.Clone(), true, nil
}

// FindAll returns copies ordered by last name, first name.
func (s *Store) FindAll(_ context.Context) ([]domain.Person, error) {
	return s.collect("find_all", func(domain.Person) bool { return true })
}

// Update replaces the stored copy when the identifier exists.
func (s *Store) Update(_ context.Context, p domain.Person) (bool, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tablePerson, indexID, p.ID)
	if err != nil {
		return false, domain.NewStorageError("update", err)
	}
	if raw == nil {
		return false, nil
	}
	key := nameKey(p.FirstName, p.LastName)
	other, err := txn.First(tablePerson, indexName, key)
	if err != nil {
		return false, domain.NewStorageError("update", err)
	}
	if other != nil && other.(*record).ID != p.ID {
		return false, domain.NewConflictError("update", "contact already exists: "+p.FullName(), nil)
	}
	// drop the old row first so a renamed record does not leave a stale name entry
	if err := txn.Delete(tablePerson, raw); err != nil {
		return false, domain.NewStorageError("update", err)
	}
	stored := p.Clone()
	if err := txn.Insert(tablePerson, &record{ID: p.ID, NameKey: key, Person: stored}); err != nil {
		return false, domain.NewStorageError("update", err)
	}
	txn.Commit()
	return true, nil
}

// Delete removes the person; false when it did not exist.
func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tablePerson, indexID, id)
	if err != nil {
		return false, domain.NewStorageError("delete", err)
	}
	if raw == nil {
		return false, nil
	}
	if err := txn.Delete(tablePerson, raw); err != nil {
		return false, domain.NewStorageError("delete", err)
	}
	txn.Commit()
	return true, nil
}

// SearchByName matches term against first and last name, ignoring case.
func (s *Store) SearchByName(_ context.Context, term string) ([]domain.Person, error) {
	q := strings.ToLower(term)
	return s.collect("search_by_name", func(p domain.Person) bool {
		return strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q)
	})
}

func (s *Store) collect(op string, keep func(domain.Person) bool) ([]domain.Person, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tablePerson, indexID)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	out := []domain.Person{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		p := raw.(*record).Person
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
