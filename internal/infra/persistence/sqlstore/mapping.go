package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	"contactbook/pkg/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(rs rowScanner) (domain.Person, error) {
	var (
		p                     domain.Person
		phone, address, email sql.NullString
		birth                 nullDate
	)
	if err := rs.Scan(
		&p.ID,
		&p.LastName,
		&p.FirstName,
		&p.Nickname,
		&phone,
		&address,
		&email,
		&birth,
	); err != nil {
		return domain.Person{}, err
	}
	p.Phone = phone.String
	p.Address = address.String
	p.Email = email.String
	if birth.Valid {
		p.BirthDate = domain.Date(birth.Time.Year(), birth.Time.Month(), birth.Time.Day())
	}
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// dateValue binds a calendar date as YYYY-MM-DD text, which both engines
// accept for a DATE column.
func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

// nullDate scans DATE columns whichever representation the driver returns.
type nullDate struct {
	Time  time.Time
	Valid bool
}

var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (d *nullDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time, d.Valid = time.Time{}, false
		return nil
	case time.Time:
		d.Time, d.Valid = v, true
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date value %T", src)
	}
}

func (d *nullDate) parse(s string) error {
	if s == "" {
		d.Time, d.Valid = time.Time{}, false
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time, d.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unparseable date %q", s)
}
