package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"contactbook/pkg/domain"
)

// PersonStoreSuite exercises the behaviour every domain.PersonStore backend
// must share. Backends embed it and supply NewStore.
type PersonStoreSuite struct {
	suite.Suite
	// NewStore returns an empty store; cleanup is the caller's concern.
	NewStore func(t *testing.T) domain.PersonStore

	ctx   context.Context
	store domain.PersonStore
}

// SetupTest opens a fresh store for every test.
func (s *PersonStoreSuite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.ctx = context.Background()
	s.store = s.NewStore(s.T())
}

func (s *PersonStoreSuite) mustCreate(p domain.Person) domain.Person {
	created, err := s.store.Create(s.ctx, p)
	s.Require().NoError(err)
	return created
}

func (s *PersonStoreSuite) TestCreateAssignsIDAndRoundTrips() {
	jane := JaneDoe()
	created := s.mustCreate(jane)
	s.Greater(created.ID, int64(0))
	s.Equal(jane.LastName, created.LastName)

	got, found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(created.ID, got.ID)
	s.Equal(jane.Phone, got.Phone)
	s.Equal(jane.Address, got.Address)
	s.Equal(jane.Email, got.Email)
	s.Require().NotNil(got.BirthDate)
	s.Equal(domain.FormatDate(jane.BirthDate), domain.FormatDate(got.BirthDate))
}

func (s *PersonStoreSuite) TestCreateAssignsDistinctIDs() {
	a := s.mustCreate(JaneDoe())
	b := s.mustCreate(JohnSmith())
	s.NotEqual(a.ID, b.ID)
}

func (s *PersonStoreSuite) TestOptionalFieldsStayEmpty() {
	created := s.mustCreate(Minimal("Ada", "Lovelace"))
	got, found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Empty(got.Phone)
	s.Empty(got.Address)
	s.Empty(got.Email)
	s.Nil(got.BirthDate)
}

func (s *PersonStoreSuite) TestFindByIDMissing() {
	_, found, err := s.store.FindByID(s.ctx, 9999)
	s.Require().NoError(err)
	s.False(found)
}

func (s *PersonStoreSuite) TestFindAllEmpty() {
	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(all)
	s.Empty(all)
}

func (s *PersonStoreSuite) TestFindAllOrderedByLastThenFirstName() {
	s.mustCreate(Minimal("Zed", "Adams"))
	s.mustCreate(Minimal("Bob", "Zimmer"))
	s.mustCreate(Minimal("Amy", "Adams"))

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"Amy Adams", "Zed Adams", "Bob Zimmer"}, fullNames(all))
}

func (s *PersonStoreSuite) TestUpdateExisting() {
	created := s.mustCreate(JaneDoe())
	created.Nickname = "JJ"
	created.Phone = ""
	created.BirthDate = nil

	ok, err := s.store.Update(s.ctx, created)
	s.Require().NoError(err)
	s.True(ok)

	got, found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal("JJ", got.Nickname)
	s.Empty(got.Phone)
	s.Nil(got.BirthDate)
}

func (s *PersonStoreSuite) TestUpdateMissingReportsFalse() {
	p := JaneDoe()
	p.ID = 4242
	ok, err := s.store.Update(s.ctx, p)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PersonStoreSuite) TestDeleteExistingThenMissing() {
	created := s.mustCreate(JaneDoe())
	ok, err := s.store.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(ok)

	_, found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(found)

	ok, err = s.store.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PersonStoreSuite) TestSearchByNameMatchesFirstOrLastIgnoringCase() {
	s.mustCreate(JaneDoe())
	s.mustCreate(JohnSmith())
	s.mustCreate(Minimal("Doris", "Day"))

	hits, err := s.store.SearchByName(s.ctx, "DO")
	s.Require().NoError(err)
	s.Equal([]string{"Doris Day", "Jane Doe"}, fullNames(hits))

	hits, err = s.store.SearchByName(s.ctx, "mit")
	s.Require().NoError(err)
	s.Equal([]string{"John Smith"}, fullNames(hits))
}

func (s *PersonStoreSuite) TestSearchByNameIgnoresNickname() {
	s.mustCreate(JaneDoe())
	hits, err := s.store.SearchByName(s.ctx, JaneDoe().Nickname)
	s.Require().NoError(err)
	s.Empty(hits)
}

func (s *PersonStoreSuite) TestSearchByNameTreatsWildcardsLiterally() {
	s.mustCreate(JaneDoe())
	hits, err := s.store.SearchByName(s.ctx, "%")
	s.Require().NoError(err)
	s.Empty(hits)
	hits, err = s.store.SearchByName(s.ctx, "_")
	s.Require().NoError(err)
	s.Empty(hits)
}

func (s *PersonStoreSuite) TestSearchByNameEmptyTermMatchesAll() {
	s.mustCreate(JaneDoe())
	s.mustCreate(JohnSmith())
	hits, err := s.store.SearchByName(s.ctx, "")
	s.Require().NoError(err)
	s.Len(hits, 2)
}

func (s *PersonStoreSuite) TestDuplicateNameIsConflict() {
	s.mustCreate(JaneDoe())
	dup := Minimal("  JANE ", "doe")
	_, err := s.store.Create(s.ctx, dup)
	s.Require().Error(err)
	s.True(domain.IsConflict(err), "expected conflict, got %v", err)

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PersonStoreSuite) TestUpdateIntoExistingNameIsConflict() {
	s.mustCreate(JaneDoe())
	john := s.mustCreate(JohnSmith())
	john.FirstName, john.LastName = "Jane", "Doe"
	_, err := s.store.Update(s.ctx, john)
	s.Require().Error(err)
	s.True(domain.IsConflict(err), "expected conflict, got %v", err)
}

func (s *PersonStoreSuite) TestReturnedValuesAreIndependent() {
	created := s.mustCreate(JaneDoe())
	created.BirthDate = domain.Date(1900, 1, 1)
	created.Nickname = "mutated"

	got, _, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(JaneDoe().Nickname, got.Nickname)
	s.Equal(domain.FormatDate(JaneDoe().BirthDate), domain.FormatDate(got.BirthDate))
}

func fullNames(ps []domain.Person) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = strings.TrimSpace(p.FullName())
	}
	return out
}
