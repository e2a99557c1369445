package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactbook/internal/infra/persistence/memory"
	"contactbook/pkg/domain"
)

func newDirectory(t *testing.T) (*Directory, *Service) {
	t.Helper()
	svc := newMemoryService()
	dir := NewDirectory(svc)
	require.NoError(t, dir.Reload(context.Background()))
	return dir, svc
}

func TestDirectoryReloadsAfterEveryWrite(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)
	assert.Equal(t, 0, dir.Len())

	created, err := dir.Add(ctx, johnDoe())
	require.NoError(t, err)
	require.Equal(t, 1, dir.Len())

	created.Phone = "555-9999"
	ok, err := dir.Edit(ctx, created)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "555-9999", dir.Contacts()[0].Phone)

	ok, err = dir.Remove(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, dir.Len())
}

func TestDirectorySeesForeignWritesOnlyAfterReload(t *testing.T) {
	ctx := context.Background()
	dir, svc := newDirectory(t)

	_, err := svc.Create(ctx, johnDoe())
	require.NoError(t, err)
	assert.Equal(t, 0, dir.Len(), "writes made elsewhere need an explicit reload")

	require.NoError(t, dir.Reload(ctx))
	assert.Equal(t, 1, dir.Len())
}

func TestDirectoryEditOfVanishedRecordStillReloads(t *testing.T) {
	ctx := context.Background()
	dir, svc := newDirectory(t)
	created, err := dir.Add(ctx, johnDoe())
	require.NoError(t, err)

	_, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, dir.Len())

	ok, err := dir.Edit(ctx, created)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, dir.Len())
}

func TestDirectoryFailedWriteLeavesListUntouched(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)
	_, err := dir.Add(ctx, johnDoe())
	require.NoError(t, err)

	_, err = dir.Add(ctx, johnDoe())
	require.True(t, domain.IsConflict(err))
	assert.Equal(t, 1, dir.Len())
}

func TestDirectoryReportsReloadFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{PersonStore: memory.NewStore()}
	dir := NewDirectory(NewService(store, WithClock(fixedClock())))

	// duplicate scan must succeed, the reload afterwards fails
	p, err := NewService(store).Create(ctx, johnDoe())
	require.NoError(t, err)
	store.failFindAll = true
	ok, err := dir.Remove(ctx, p.ID)
	assert.True(t, ok, "the delete itself succeeded")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reload after delete")
	assert.True(t, domain.IsStorage(err))
}

func TestDirectoryFilter(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)
	_, err := dir.Add(ctx, johnDoe())
	require.NoError(t, err)
	_, err = dir.Add(ctx, domain.Person{LastName: "Smith", FirstName: "Ana", Nickname: "Annie", Email: "ana@corp.io", Phone: "020 7946 0000"})
	require.NoError(t, err)

	cases := map[string]int{
		"":            2,
		"   ":         2,
		"john doe":    1,
		"ANNIE":       1,
		"7946":        1,
		"example.com": 1,
		"corp":        1,
		"zzz":         0,
		"n":           2,
	}
	for term, want := range cases {
		assert.Len(t, dir.Filter(term), want, "term %q", term)
	}
}

func TestDirectoryStats(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)
	assert.Equal(t, "0 contacts", dir.Stats(0))

	_, err := dir.Add(ctx, johnDoe())
	require.NoError(t, err)
	assert.Equal(t, "1 contact", dir.Stats(1))
	assert.Equal(t, "0 of 1 contact", dir.Stats(0))

	_, err = dir.Add(ctx, domain.Person{LastName: "Smith", FirstName: "Ana", Nickname: "A"})
	require.NoError(t, err)
	assert.Equal(t, "2 contacts", dir.Stats(2))
	assert.Equal(t, "1 of 2 contacts", dir.Stats(1))
}

func TestDirectoryContactsAreCopies(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)
	_, err := dir.Add(ctx, johnDoe())
	require.NoError(t, err)

	got := dir.Contacts()
	got[0].Nickname = "changed"
	*got[0].BirthDate = *domain.Date(2000, 1, 1)

	fresh := dir.Contacts()
	assert.Equal(t, "JD", fresh[0].Nickname)
	assert.Equal(t, "1995-05-15", domain.FormatDate(fresh[0].BirthDate))
}
