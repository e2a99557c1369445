// Package domain holds the contact entity, the tagged error type shared by
// every layer and the storage capability interface implemented by the
// persistence backends.
package domain

import "time"

// Field names used in validation errors and persisted column mapping.
const (
	FieldID        = "id"
	FieldLastName  = "lastname"
	FieldFirstName = "firstname"
	FieldNickname  = "nickname"
	FieldPhone     = "phone_number"
	FieldAddress   = "address"
	FieldEmail     = "email_address"
	FieldBirthDate = "birth_date"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// Person is a single contact record. ID is zero until the record has been
// created by a store; optional text fields use the empty string for "absent".
type Person struct {
	ID        int64      `json:"id"`
	LastName  string     `json:"last_name"`
	FirstName string     `json:"first_name"`
	Nickname  string     `json:"nickname"`
	Phone     string     `json:"phone_number,omitempty"`
	Address   string     `json:"address,omitempty"`
	Email     string     `json:"email_address,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

// FullName returns "first last". It is derived and never stored.
func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Persisted reports whether the record carries a store-assigned identifier.
func (p Person) Persisted() bool { return p.ID > 0 }

// Clone returns an independent copy; BirthDate is the only reference field.
func (p Person) Clone() Person {
	cp := p
	if p.BirthDate != nil {
		d := *p.BirthDate
		cp.BirthDate = &d
	}
	return cp
}

// Date returns a pointer to the UTC-midnight calendar date y-m-d.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// TruncateDate strips the clock part of t, keeping its calendar date in UTC.
// Nil stays nil.
func TruncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. The empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders t as YYYY-MM-DD, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
