package transfer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"contactbook/internal/blob"
	"contactbook/internal/core"
	"contactbook/pkg/domain"
)

// Prefix is the key prefix every export is written under.
const Prefix = "exports/"

const keyTimeLayout = "20060102T150405"

// Lister is the read side an export needs.
type Lister interface {
	FindAll(ctx context.Context) ([]domain.Person, error)
}

// Creator is the write side an import needs.
type Creator interface {
	Create(ctx context.Context, p domain.Person) (domain.Person, error)
}

// Option configures an Exporter or Importer.
type Option func(*options)

type options struct {
	logger *slog.Logger
	clock  core.Clock
	newID  func() string
}

// WithLogger sets the logger; nil keeps the discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the clock used for export keys.
func WithClock(clock core.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
		clock:  core.ClockFunc(nil),
		newID:  func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Exporter writes contact snapshots to blob storage.
type Exporter struct {
	people Lister
	store  blob.Store
	opts   options
}

// NewExporter returns an exporter reading from people and writing to store.
func NewExporter(people Lister, store blob.Store, opts ...Option) *Exporter {
	return &Exporter{people: people, store: store, opts: buildOptions(opts)}
}

// Key returns the blob key for an export taken at t.
func Key(t time.Time, id string, f Format) string {
	return fmt.Sprintf("%scontacts-%s-%s.%s", Prefix, t.UTC().Format(keyTimeLayout), id, f)
}

// Export writes every contact in f and returns the stored blob.
func (e *Exporter) Export(ctx context.Context, f Format) (blob.Info, error) {
	f, err := ParseFormat(string(f))
	if err != nil {
		return blob.Info{}, err
	}
	people, err := e.people.FindAll(ctx)
	if err != nil {
		return blob.Info{}, fmt.Errorf("load contacts: %w", err)
	}
	records := make([]Record, len(people))
	for i, p := range people {
		records[i] = FromPerson(p)
	}
	var buf bytes.Buffer
	if err := encode(&buf, f, records); err != nil {
		return blob.Info{}, fmt.Errorf("encode %s export: %w", f, err)
	}
	now := e.opts.clock.Now()
	key := Key(now, e.opts.newID(), f)
	info, err := e.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), blob.PutOptions{
		ContentType: f.ContentType(),
		Metadata: map[string]string{
			"records":     strconv.Itoa(len(records)),
			"format":      string(f),
			"exported-at": now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store export %s: %w", key, err)
	}
	e.opts.logger.Info("contacts exported", "key", info.Key, "records", len(records), "bytes", info.Size, "driver", e.store.Driver())
	return info, nil
}

// List returns the exports in the store ordered by key, which is also
// chronological.
func (e *Exporter) List(ctx context.Context) ([]blob.Info, error) {
	return List(ctx, e.store)
}

// List returns the exports held in store.
func List(ctx context.Context, store blob.Store) ([]blob.Info, error) {
	infos, err := store.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return infos, nil
}

// Failure describes one record an import skipped.
type Failure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Report summarises an import.
type Report struct {
	Key       string    `json:"key"`
	Total     int       `json:"total"`
	Created   int       `json:"created"`
	Conflicts int       `json:"conflicts"`
	Invalid   int       `json:"invalid"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Importer replays an export through the domain service.
type Importer struct {
	people Creator
	store  blob.Store
	opts   options
}

// NewImporter returns an importer reading from store and creating through people.
func NewImporter(people Creator, store blob.Store, opts ...Option) *Importer {
	return &Importer{people: people, store: store, opts: buildOptions(opts)}
}

// Import creates every record of the export at key. Rejected records
// (validation or duplicate) are counted and skipped; a storage failure aborts
// the import and returns the partial report with the error.
func (im *Importer) Import(ctx context.Context, key string) (Report, error) {
	report := Report{Key: key}
	info, rc, err := im.store.Get(ctx, key)
	if err != nil {
		return report, fmt.Errorf("open export %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()

	f := formatOfKey(key)
	if info.ContentType == FormatCSV.ContentType() {
		f = FormatCSV
	}
	records, err := decode(rc, f)
	if err != nil {
		return report, err
	}
	report.Total = len(records)
	for i, r := range records {
		name := strings.TrimSpace(r.FirstName + " " + r.LastName)
		p, err := r.Person()
		if err == nil {
			_, err = im.people.Create(ctx, p)
		}
		switch {
		case err == nil:
			report.Created++
			continue
		case domain.IsValidation(err):
			report.Invalid++
		case domain.IsConflict(err):
			report.Conflicts++
		default:
			im.opts.logger.Error("import aborted", "key", key, "record", i, "error", err)
			return report, fmt.Errorf("import record %d (%s): %w", i, name, err)
		}
		report.Failures = append(report.Failures, Failure{Index: i, Name: name, Kind: string(domain.KindOf(err)), Error: err.Error()})
		im.opts.logger.Warn("import record skipped", "key", key, "record", i, "name", name, "error", err)
	}
	im.opts.logger.Info("contacts imported", "key", key, "total", report.Total,
		"created", report.Created, "conflicts", report.Conflicts, "invalid", report.Invalid)
	return report, nil
}
