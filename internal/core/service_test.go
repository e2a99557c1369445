package core

//go:generate mockgen -destination=mocks/person_store.go -package=mocks contactbook/pkg/domain PersonStore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"contactbook/internal/core/mocks"
	"contactbook/internal/infra/persistence/memory"
	"contactbook/pkg/domain"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() Clock { return ClockFunc(func() time.Time { return fixedNow }) }

func newMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(), append([]ServiceOption{WithClock(fixedClock())}, opts...)...)
}

func johnDoe() domain.Person {
	return domain.Person{
		LastName:  "Doe",
		FirstName: "John",
		Nickname:  "JD",
		Phone:     "555-1234",
		Email:     "test@example.com",
		BirthDate: domain.Date(1995, 5, 15),
	}
}

// strictService returns a service over a mock that fails the test on any call.
func strictService(t *testing.T) *Service {
	ctrl := gomock.NewController(t)
	return NewService(mocks.NewMockPersonStore(ctrl), WithClock(fixedClock()))
}

func TestCreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService()

	in := johnDoe()
	in.Address = "  12 High St  "
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.Positive(t, created.ID)

	got, found, err := svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)
	assert.Equal(t, "12 High St", got.Address, "text fields are stored trimmed")
	assert.Equal(t, "John Doe", got.FullName())
}

func TestCreateIgnoresIncomingID(t *testing.T) {
	svc := newMemoryService()
	in := johnDoe()
	in.ID = 99
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestCreateNormalisesBirthDateToCalendarDay(t *testing.T) {
	svc := newMemoryService()
	in := johnDoe()
	ts := time.Date(1995, 5, 15, 17, 30, 0, 0, time.UTC)
	in.BirthDate = &ts
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created.BirthDate.Equal(*domain.Date(1995, 5, 15)))
}

func TestRequiredFieldsBlankRejectedWithoutStorage(t *testing.T) {
	cases := map[string]func(*domain.Person){
		"last name":  func(p *domain.Person) { p.LastName = "" },
		"first name": func(p *domain.Person) { p.FirstName = "   " },
		"nickname":   func(p *domain.Person) { p.Nickname = "\t" },
		"too long":   func(p *domain.Person) { p.LastName = strings.Repeat("x", 46) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc := strictService(t)
			p := johnDoe()
			mutate(&p)

			_, err := svc.Create(context.Background(), p)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err), "got %v", err)

			p.ID = 7
			_, err = svc.Update(context.Background(), p)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestNameLengthCountsRunes(t *testing.T) {
	svc := newMemoryService()
	p := johnDoe()
	p.LastName = strings.Repeat("é", 45)
	_, err := svc.Create(context.Background(), p)
	assert.NoError(t, err)
}

func TestMalformedEmailRejected(t *testing.T) {
	for _, email := range []string{
		"plain",
		"no-at.example.com",
		"a@b",
		"a @example.com",
		"a@ example.com",
		"a@example.c",
		"@example.com",
		strings.Repeat("a", 140) + "@example.com",
	} {
		t.Run(email, func(t *testing.T) {
			svc := strictService(t)
			p := johnDoe()
			p.Email = email
			_, err := svc.Create(context.Background(), p)
			require.True(t, domain.IsValidation(err), "got %v", err)
			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Contains(t, de.Fields, domain.FieldEmail)
		})
	}
}

func TestWellFormedEmailAccepted(t *testing.T) {
	for i, email := range []string{"test@example.com", "first.last+tag@sub.example.co.uk", "x_y%z@d-n.io"} {
		svc := newMemoryService()
		p := johnDoe()
		p.Email = email
		p.LastName = p.LastName + strings.Repeat("e", i)
		_, err := svc.Create(context.Background(), p)
		assert.NoError(t, err, email)
	}
}

func TestPhoneOutsideAcceptedSetRejected(t *testing.T) {
	for _, phone := range []string{"555-12a4", "12345", "call me", "555.1234", "+1 555 0100 ext 5", strings.Repeat("1", 21)} {
		t.Run(phone, func(t *testing.T) {
			svc := strictService(t)
			p := johnDoe()
			p.Phone = phone
			_, err := svc.Create(context.Background(), p)
			require.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestPhoneAcceptedForms(t *testing.T) {
	for _, phone := range []string{"555-1234", "+1 (555) 010-0100", "020 7946 0000", "123456"} {
		svc := newMemoryService()
		p := johnDoe()
		p.Phone = phone
		_, err := svc.Create(context.Background(), p)
		assert.NoError(t, err, phone)
	}
}

func TestAddressTooLongRejected(t *testing.T) {
	svc := strictService(t)
	p := johnDoe()
	p.Address = strings.Repeat("a", 201)
	_, err := svc.Create(context.Background(), p)
	assert.True(t, domain.IsValidation(err))
}

func TestFutureBirthDateRejected(t *testing.T) {
	svc := strictService(t)
	p := johnDoe()
	p.BirthDate = domain.Date(2024, 6, 2)
	_, err := svc.Create(context.Background(), p)
	require.True(t, domain.IsValidation(err), "got %v", err)
	assert.Contains(t, err.Error(), "must not be in the future")
}

func TestBirthDateTodayAccepted(t *testing.T) {
	svc := newMemoryService()
	p := johnDoe()
	p.BirthDate = domain.Date(2024, 6, 1)
	_, err := svc.Create(context.Background(), p)
	assert.NoError(t, err)
}

func TestValidationCollectsEveryField(t *testing.T) {
	svc := strictService(t)
	_, err := svc.Create(context.Background(), domain.Person{Phone: "x", Email: "y"})
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindValidation, de.Kind)
	for _, f := range []string{domain.FieldLastName, domain.FieldFirstName, domain.FieldNickname, domain.FieldPhone, domain.FieldEmail} {
		assert.Contains(t, de.Fields, f)
	}
	assert.Equal(t, OpCreate, de.Op)
}

func TestDuplicateNameConflicts(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService()
	_, err := svc.Create(ctx, johnDoe())
	require.NoError(t, err)

	dup := domain.Person{LastName: "  doe ", FirstName: "JOHN", Nickname: "Other"}
	_, err = svc.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err), "got %v", err)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDuplicateRuleIgnoresPhoneAndEmail(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService()
	_, err := svc.Create(ctx, johnDoe())
	require.NoError(t, err)

	other := johnDoe()
	other.FirstName = "Jane"
	_, err = svc.Create(ctx, other)
	assert.NoError(t, err, "same phone and email under another name is allowed")
}

func TestUpdateKeepsOwnNameAndRejectsOthers(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService()
	john, err := svc.Create(ctx, johnDoe())
	require.NoError(t, err)
	ana, err := svc.Create(ctx, domain.Person{LastName: "Smith", FirstName: "Ana", Nickname: "A"})
	require.NoError(t, err)

	john.Phone = "555-9999"
	ok, err := svc.Update(ctx, john)
	require.NoError(t, err)
	assert.True(t, ok)

	ana.FirstName, ana.LastName = "john", "DOE"
	_, err = svc.Update(ctx, ana)
	assert.True(t, domain.IsConflict(err), "got %v", err)
}

func TestNonPositiveIDRejectedWithoutStorage(t *testing.T) {
	ctx := context.Background()
	for _, id := range []int64{0, -1} {
		svc := strictService(t)

		_, _, err := svc.FindByID(ctx, id)
		assert.True(t, domain.IsValidation(err), "find %d: %v", id, err)

		_, err = svc.Delete(ctx, id)
		assert.True(t, domain.IsValidation(err), "delete %d: %v", id, err)

		p := johnDoe()
		p.ID = id
		_, err = svc.Update(ctx, p)
		assert.True(t, domain.IsValidation(err), "update %d: %v", id, err)
	}
}

func TestSearchByName(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService()
	doe, err := svc.Create(ctx, johnDoe())
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.Person{LastName: "Smith", FirstName: "Ana", Nickname: "A"})
	require.NoError(t, err)

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	for _, term := range []string{"", "   "} {
		got, err := svc.SearchByName(ctx, term)
		require.NoError(t, err)
		assert.Equal(t, all, got, "blank term %q", term)
	}

	got, err := svc.SearchByName(ctx, "doe")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, doe.ID, got[0].ID)

	got, err = svc.SearchByName(ctx, "  DOE ")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateDeletedReturnsFalse(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService()
	p, err := svc.Create(ctx, johnDoe())
	require.NoError(t, err)
	ok, err := svc.Delete(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Update(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := svc.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteMissingReturnsFalse(t *testing.T) {
	ok, err := newMemoryService().Delete(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreUniqueViolationSurfacesAsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockPersonStore(ctrl)
	svc := NewService(store, WithClock(fixedClock()))

	gomock.InOrder(
		store.EXPECT().FindAll(gomock.Any()).Return([]domain.Person{}, nil),
		store.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(domain.Person{}, domain.NewConflictError("create", "contact already exists: John Doe", errors.New("UNIQUE constraint failed"))),
	)
	_, err := svc.Create(context.Background(), johnDoe())
	assert.True(t, domain.IsConflict(err), "got %v", err)
}

func TestStoreFailureIsStorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockPersonStore(ctrl)
	svc := NewService(store)

	boom := errors.New("disk I/O error")
	store.EXPECT().FindAll(gomock.Any()).Return(nil, boom)
	_, err := svc.Create(context.Background(), johnDoe())
	require.True(t, domain.IsStorage(err), "got %v", err)
	assert.ErrorIs(t, err, boom)

	store.EXPECT().FindByID(gomock.Any(), int64(3)).Return(domain.Person{}, false, boom)
	_, _, err = svc.FindByID(context.Background(), 3)
	assert.True(t, domain.IsStorage(err))

	store.EXPECT().SearchByName(gomock.Any(), "doe").Return(nil, boom)
	_, err = svc.SearchByName(context.Background(), " doe ")
	assert.True(t, domain.IsStorage(err))
}

func TestCreatePassesNormalisedPersonToStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockPersonStore(ctrl)
	svc := NewService(store, WithClock(fixedClock()))

	in := johnDoe()
	in.FirstName = "  John  "
	in.ID = 5
	store.EXPECT().FindAll(gomock.Any()).Return(nil, nil)
	store.EXPECT().Create(gomock.Any(), gomock.Cond(func(p domain.Person) bool {
		return p.FirstName == "John" && p.ID == 0
	})).DoAndReturn(func(_ context.Context, p domain.Person) (domain.Person, error) {
		p.ID = 1
		return p, nil
	})
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestStoreAccessor(t *testing.T) {
	store := memory.NewStore()
	assert.Same(t, store, NewService(store).Store())
}
