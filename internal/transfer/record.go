// Package transfer moves contacts between a person store and blob storage:
// exports snapshot every contact to a JSON or CSV blob, imports replay an
// export through the domain service so every record is validated again.
package transfer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"contactbook/pkg/domain"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a user supplied name to a Format; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type blobs of this format are stored with.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// formatOfKey infers the format from the key extension.
func formatOfKey(key string) Format {
	if strings.HasSuffix(strings.ToLower(key), "."+string(FormatCSV)) {
		return FormatCSV
	}
	return FormatJSON
}

// Record is the serialized form of a person. Dates travel as YYYY-MM-DD.
type Record struct {
	ID        int64  `json:"id,omitempty"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Nickname  string `json:"nickname"`
	Phone     string `json:"phone_number,omitempty"`
	Address   string `json:"address,omitempty"`
	Email     string `json:"email_address,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
}

var csvHeader = []string{
	domain.FieldID, domain.FieldLastName, domain.FieldFirstName, domain.FieldNickname,
	domain.FieldPhone, domain.FieldAddress, domain.FieldEmail, domain.FieldBirthDate,
}

// FromPerson converts a stored person.
func FromPerson(p domain.Person) Record {
	return Record{
		ID:        p.ID,
		LastName:  p.LastName,
		FirstName: p.FirstName,
		Nickname:  p.Nickname,
		Phone:     p.Phone,
		Address:   p.Address,
		Email:     p.Email,
		BirthDate: domain.FormatDate(p.BirthDate),
	}
}

// Person converts the record into an unsaved person; the ID is dropped.
func (r Record) Person() (domain.Person, error) {
	birth, err := domain.ParseDate(strings.TrimSpace(r.BirthDate))
	if err != nil {
		return domain.Person{}, domain.NewValidationError("import", domain.FieldBirthDate, "must be a date in YYYY-MM-DD format")
	}
	return domain.Person{
		LastName:  r.LastName,
		FirstName: r.FirstName,
		Nickname:  r.Nickname,
		Phone:     r.Phone,
		Address:   r.Address,
		Email:     r.Email,
		BirthDate: birth,
	}, nil
}

func encode(w io.Writer, f Format, records []Record) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		for _, r := range records {
			row := []string{strconv.FormatInt(r.ID, 10), r.LastName, r.FirstName, r.Nickname, r.Phone, r.Address, r.Email, r.BirthDate}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

func decode(r io.Reader, f Format) ([]Record, error) {
	if f == FormatJSON {
		var records []Record
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode json export: %w", err)
		}
		return records, nil
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv export: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if rows[0][0] != domain.FieldID {
		return nil, fmt.Errorf("decode csv export: missing header row")
	}
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id, _ := strconv.ParseInt(row[0], 10, 64)
		records = append(records, Record{
			ID: id, LastName: row[1], FirstName: row[2], Nickname: row[3],
			Phone: row[4], Address: row[5], Email: row[6], BirthDate: row[7],
		})
	}
	return records, nil
}
