package core

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"contactbook/pkg/domain"
)

const (
	maxNameLen    = 45
	maxPhoneLen   = 20
	maxAddressLen = 200
	maxEmailLen   = 150
)

var (
	emailPattern = regexp.MustCompile(`^[\w.%+-]+@[\w.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[0-9+()\-\s]{6,20}$`)
)

// normalize trims every text field and reduces the birth date to its calendar day.
func normalize(p domain.Person) domain.Person {
	out := p.Clone()
	out.LastName = strings.TrimSpace(p.LastName)
	out.FirstName = strings.TrimSpace(p.FirstName)
	out.Nickname = strings.TrimSpace(p.Nickname)
	out.Phone = strings.TrimSpace(p.Phone)
	out.Address = strings.TrimSpace(p.Address)
	out.Email = strings.TrimSpace(p.Email)
	out.BirthDate = domain.TruncateDate(p.BirthDate)
	return out
}

type problems map[string]string

func (pr problems) add(field, problem string) {
	if _, seen := pr[field]; !seen {
		pr[field] = problem
	}
}

func (pr problems) required(field, value string) {
	switch {
	case value == "":
		pr.add(field, "is required")
	case utf8.RuneCountInString(value) > maxNameLen:
		pr.add(field, "must be at most 45 characters")
	}
}

// validate checks a normalised person. It returns nil or a single validation
// error carrying the first problem found for each field.
func (s *Service) validate(op string, p domain.Person) error {
	pr := problems{}
	pr.required(domain.FieldLastName, p.LastName)
	pr.required(domain.FieldFirstName, p.FirstName)
	pr.required(domain.FieldNickname, p.Nickname)

	if p.Phone != "" {
		if utf8.RuneCountInString(p.Phone) > maxPhoneLen {
			pr.add(domain.FieldPhone, "must be at most 20 characters")
		}
		if !phonePattern.MatchString(p.Phone) {
			pr.add(domain.FieldPhone, "must be 6-20 digits, spaces or + ( ) -")
		}
	}
	if p.Email != "" {
		if utf8.RuneCountInString(p.Email) > maxEmailLen {
			pr.add(domain.FieldEmail, "must be at most 150 characters")
		}
		if !emailPattern.MatchString(p.Email) {
			pr.add(domain.FieldEmail, "must look like local@domain.tld")
		}
	}
	if utf8.RuneCountInString(p.Address) > maxAddressLen {
		pr.add(domain.FieldAddress, "must be at most 200 characters")
	}
	if p.BirthDate != nil {
		now := s.clock.Now()
		today := domain.Date(now.Year(), now.Month(), now.Day())
		if p.BirthDate.After(*today) {
			pr.add(domain.FieldBirthDate, "must not be in the future")
		}
	}
	if len(pr) == 0 {
		return nil
	}
	return &domain.Error{Kind: domain.KindValidation, Op: op, Fields: pr}
}

func validID(op string, id int64) error {
	if id <= 0 {
		return domain.NewValidationError(op, domain.FieldID, "must be a positive integer")
	}
	return nil
}

func nameKey(p domain.Person) string {
	return strings.ToLower(strings.TrimSpace(p.FirstName)) + "\x1f" + strings.ToLower(strings.TrimSpace(p.LastName))
}
