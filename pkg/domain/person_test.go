package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonFullName(t *testing.T) {
	p := Person{FirstName: "John", LastName: "Doe"}
	assert.Equal(t, "John Doe", p.FullName())
	assert.False(t, p.Persisted())
	p.ID = 7
	assert.True(t, p.Persisted())
}

func TestPersonCloneIsIndependent(t *testing.T) {
	orig := Person{ID: 1, FirstName: "Ana", LastName: "Smith", BirthDate: Date(2000, time.January, 1)}
	cp := orig.Clone()
	*cp.BirthDate = cp.BirthDate.AddDate(1, 0, 0)
	cp.FirstName = "Anna"

	assert.Equal(t, 2000, orig.BirthDate.Year())
	assert.Equal(t, "Ana", orig.FirstName)
	assert.Nil(t, Person{}.Clone().BirthDate)
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("1995-05-15")
	require.NoError(t, err)
	assert.Equal(t, *Date(1995, time.May, 15), *d)
	assert.Equal(t, "1995-05-15", FormatDate(d))

	empty, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, empty)
	assert.Equal(t, "", FormatDate(nil))

	_, err = ParseDate("15/05/1995")
	assert.Error(t, err)

	withClock := time.Date(1995, time.May, 15, 23, 10, 0, 0, time.UTC)
	assert.Equal(t, *Date(1995, time.May, 15), *TruncateDate(&withClock))
	assert.Nil(t, TruncateDate(nil))
}
