// Package sqlstore maps domain.Person values onto the person table through
// database/sql. It is shared by the SQLite and Postgres backends; each
// backend supplies its placeholder style and uniqueness-violation detector.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"contactbook/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.PersonStore = (*Gateway)(nil)

const personColumns = `idperson, lastname, firstname, nickname, phone_number, address, email_address, birth_date`

const (
	insertPersonSQL = `INSERT INTO person (lastname, firstname, nickname, phone_number, address, email_address, birth_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING idperson`
	selectPersonSQL  = `SELECT ` + personColumns + ` FROM person WHERE idperson = ?`
	selectPersonsSQL = `SELECT ` + personColumns + ` FROM person ORDER BY lastname, firstname, idperson`
	updatePersonSQL  = `UPDATE person
		SET lastname = ?, firstname = ?, nickname = ?, phone_number = ?, address = ?, email_address = ?, birth_date = ?
		WHERE idperson = ?`
	deletePersonSQL = `DELETE FROM person WHERE idperson = ?`
	searchPersonSQL = `SELECT ` + personColumns + ` FROM person
		WHERE LOWER(firstname) LIKE LOWER(?) ESCAPE '\' OR LOWER(lastname) LIKE LOWER(?) ESCAPE '\'
		ORDER BY lastname, firstname, idperson`
)

// Placeholder selects how "?" markers are rendered for the driver.
type Placeholder int

const (
	PlaceholderQuestion Placeholder = iota // ?   (SQLite)
	PlaceholderDollar                      // $1  (Postgres)
)

// Option customises a Gateway.
type Option func(*Gateway)

// WithPlaceholder sets the bind variable style.
func WithPlaceholder(p Placeholder) Option {
	return func(g *Gateway) { g.placeholder = p }
}

// WithUniqueViolation replaces the uniqueness detector. The keyword sniff is
// still consulted when fn returns false.
func WithUniqueViolation(fn func(error) bool) Option {
	return func(g *Gateway) { g.isUnique = fn }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// Gateway implements domain.PersonStore over a *sql.DB.
type Gateway struct {
	db          *sql.DB
	placeholder Placeholder
	isUnique    func(error) bool
	logger      *slog.Logger

	insertSQL, selectSQL, selectAllSQL, updateSQL, deleteSQL, searchSQL string
}

// New constructs a gateway over db.
func New(db *sql.DB, opts ...Option) *Gateway {
	g := &Gateway{db: db, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(g)
	}
	g.insertSQL = g.rebind(insertPersonSQL)
	g.selectSQL = g.rebind(selectPersonSQL)
	g.selectAllSQL = g.rebind(selectPersonsSQL)
	g.updateSQL = g.rebind(updatePersonSQL)
	g.deleteSQL = g.rebind(deletePersonSQL)
	g.searchSQL = g.rebind(searchPersonSQL)
	return g
}

// DB exposes the underlying handle for bootstrap and test hooks.
func (g *Gateway) DB() *sql.DB { return g.db }

func (g *Gateway) rebind(query string) string {
	if g.placeholder != PlaceholderDollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create inserts p and returns it with the generated identifier.
func (g *Gateway) Create(ctx context.Context, p domain.Person) (domain.Person, error) {
	const op = "create"
	created := p.Clone()
	created.BirthDate = domain.TruncateDate(p.BirthDate)
	err := g.db.QueryRowContext(ctx, g.insertSQL,
		created.LastName,
		created.FirstName,
		created.Nickname,
		nullString(created.Phone),
		nullString(created.Address),
		nullString(created.Email),
		dateValue(created.BirthDate),
	).Scan(&created.ID)
	if err != nil {
		return domain.Person{}, g.classify(op, created, err)
	}
	g.logger.DebugContext(ctx, "person created", "id", created.ID, "name", created.FullName())
	return created, nil
}

// FindByID returns the row with the given identifier.
func (g *Gateway) FindByID(ctx context.Context, id int64) (domain.Person, bool, error) {
	p, err := scanPerson(g.db.QueryRowContext(ctx, g.selectSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Person{}, false, nil
	}
	if err != nil {
		return domain.Person{}, false, domain.NewStorageError("find_by_id", err)
	}
	return p, true, nil
}

// FindAll returns every row ordered by last name, first name.
func (g *Gateway) FindAll(ctx context.Context) ([]domain.Person, error) {
	persons, err := g.query(ctx, g.selectAllSQL)
	if err != nil {
		return nil, domain.NewStorageError("find_all", err)
	}
	g.logger.DebugContext(ctx, "persons retrieved", "count", len(persons))
	return persons, nil
}

// Update replaces every mutable column of the row identified by p.ID.
func (g *Gateway) Update(ctx context.Context, p domain.Person) (bool, error) {
	const op = "update"
	res, err := g.db.ExecContext(ctx, g.updateSQL,
		p.LastName,
		p.FirstName,
		p.Nickname,
		nullString(p.Phone),
		nullString(p.Address),
		nullString(p.Email),
		dateValue(domain.TruncateDate(p.BirthDate)),
		p.ID,
	)
	if err != nil {
		return false, g.classify(op, p, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.NewStorageError(op, err)
	}
	g.logger.DebugContext(ctx, "person update", "id", p.ID, "found", n > 0)
	return n > 0, nil
}

// Delete removes the row identified by id.
func (g *Gateway) Delete(ctx context.Context, id int64) (bool, error) {
	const op = "delete"
	res, err := g.db.ExecContext(ctx, g.deleteSQL, id)
	if err != nil {
		return false, domain.NewStorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.NewStorageError(op, err)
	}
	g.logger.DebugContext(ctx, "person delete", "id", id, "found", n > 0)
	return n > 0, nil
}

// SearchByName matches term as a case-insensitive substring of first or last name.
func (g *Gateway) SearchByName(ctx context.Context, term string) ([]domain.Person, error) {
	pattern := "%" + escapeLike(term) + "%"
	persons, err := g.query(ctx, g.searchSQL, pattern, pattern)
	if err != nil {
		return nil, domain.NewStorageError("search_by_name", err)
	}
	g.logger.DebugContext(ctx, "persons matched", "term", term, "count", len(persons))
	return persons, nil
}

func (g *Gateway) query(ctx context.Context, query string, args ...any) (persons []domain.Person, err error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	persons = []domain.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return persons, nil
}

func (g *Gateway) classify(op string, p domain.Person, err error) error {
	if (g.isUnique != nil && g.isUnique(err)) || IsUniqueViolationText(err) {
		return domain.NewConflictError(op, "contact already exists: "+p.FullName(), err)
	}
	return domain.NewStorageError(op, err)
}

// IsUniqueViolationText reports whether the error text names a unique
// constraint, the way both SQLite and Postgres phrase it.
func IsUniqueViolationText(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") && strings.Contains(msg, "constraint")
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
