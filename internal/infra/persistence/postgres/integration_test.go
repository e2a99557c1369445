//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"contactbook/internal/infra/persistence/postgres"
	"contactbook/internal/testutil"
	"contactbook/internal/testutil/containers"
	"contactbook/pkg/domain"
)

type PostgresStoreSuite struct {
	testutil.PersonStoreSuite
	pg *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.NewStore = func(t *testing.T) domain.PersonStore {
		store, err := postgres.NewStore(context.Background(), s.pg.DSN)
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		if _, err := store.DB().Exec(`TRUNCATE TABLE person RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	}
}
