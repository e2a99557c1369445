package domain

import "context"

// PersonStore is the persistence capability the service depends on.
// Implementations live under internal/infra/persistence and must:
//   - assign a positive ID on Create and return the stored copy;
//   - return (Person{}, false, nil) from FindByID when no row matches;
//   - order FindAll by last name, then first name;
//   - report (false, nil) from Update and Delete when no row was affected;
//   - match SearchByName case-insensitively as a substring of first or last name;
//   - return *Error values tagged KindStorage, or KindConflict for uniqueness
//     violations on write.
type PersonStore interface {
	Create(ctx context.Context, p Person) (Person, error)
	FindByID(ctx context.Context, id int64) (Person, bool, error)
	FindAll(ctx context.Context) ([]Person, error)
	Update(ctx context.Context, p Person) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	SearchByName(ctx context.Context, term string) ([]Person, error)
}

// ClosableStore is a PersonStore that owns resources released by Close.
type ClosableStore interface {
	PersonStore
	Close() error
}
