package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"contactbook/internal/infra/persistence/memory"
	"contactbook/internal/testutil"
	"contactbook/pkg/domain"
)

func TestMemoryStoreContract(t *testing.T) {
	suite.Run(t, &testutil.PersonStoreSuite{
		NewStore: func(*testing.T) domain.PersonStore { return memory.NewStore() },
	})
}

func TestCreateDoesNotAliasCallerValue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	in := testutil.JaneDoe()
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	*in.BirthDate = *domain.Date(2001, 1, 1)
	got, found, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1990-05-17", domain.FormatDate(got.BirthDate))
}

func TestRenameFreesOldName(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	created, err := store.Create(ctx, testutil.JaneDoe())
	require.NoError(t, err)

	created.FirstName = "Janet"
	ok, err := store.Update(ctx, created)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = store.Create(ctx, testutil.JaneDoe())
	assert.NoError(t, err, "the previous name should be available again")
}

func TestIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first, err := store.Create(ctx, testutil.JaneDoe())
	require.NoError(t, err)
	_, err = store.Delete(ctx, first.ID)
	require.NoError(t, err)
	second, err := store.Create(ctx, testutil.JaneDoe())
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestConflictDoesNotConsumeID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.Create(ctx, testutil.JaneDoe())
	require.NoError(t, err)
	_, err = store.Create(ctx, testutil.JaneDoe())
	require.True(t, domain.IsConflict(err))
	next, err := store.Create(ctx, testutil.JohnSmith())
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.ID)
}

func TestConcurrentCreatesAssignUniqueIDs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	const n = 32
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := testutil.Minimal("First", string(rune('A'+i%26))+string(rune('a'+i/26)))
			created, err := store.Create(ctx, p)
			if err == nil {
				ids <- created.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestCloseIsNoop(t *testing.T) {
	assert.NoError(t, memory.NewStore().Close())
}
