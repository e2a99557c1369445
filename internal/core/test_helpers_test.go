package core

import (
	"context"

	"contactbook/pkg/domain"
)

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f failingStore) Create(context.Context, domain.Person) (domain.Person, error) {
	return domain.Person{}, f.err
}

func (f failingStore) FindByID(context.Context, int64) (domain.Person, bool, error) {
	return domain.Person{}, false, f.err
}

func (f failingStore) FindAll(context.Context) ([]domain.Person, error) { return nil, f.err }

func (f failingStore) Update(context.Context, domain.Person) (bool, error) { return false, f.err }

func (f failingStore) Delete(context.Context, int64) (bool, error) { return false, f.err }

func (f failingStore) SearchByName(context.Context, string) ([]domain.Person, error) {
	return nil, f.err
}

// flakyStore wraps a store and fails FindAll once armed.
type flakyStore struct {
	domain.PersonStore
	failFindAll bool
}

func (f *flakyStore) FindAll(ctx context.Context) ([]domain.Person, error) {
	if f.failFindAll {
		return nil, domain.NewStorageError("find_all", context.DeadlineExceeded)
	}
	return f.PersonStore.FindAll(ctx)
}
