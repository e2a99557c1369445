// Package core implements the contact service: input validation, the
// duplicate-name rule and delegation to a domain.PersonStore, plus the
// caller-side Directory and backend selection.
//
// The service never caches. Callers that hold a list of contacts reload it
// after every successful write; Directory does exactly that.
package core

import (
	"context"
	"strings"
	"time"

	"contactbook/pkg/domain"
)

// Operation names reported to metrics, traces, audit entries and error values.
const (
	OpCreate = "create_person"
	OpFind   = "find_person"
	OpList   = "list_persons"
	OpUpdate = "update_person"
	OpDelete = "delete_person"
	OpSearch = "search_persons"
)

const auditEntity = "person"

// Service validates contacts and enforces the duplicate rule before any
// store access.
type Service struct {
	store   domain.PersonStore
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// NewService constructs a service backed by store.
func NewService(store domain.PersonStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		clock:   ClockFunc(nil),
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersonStore { return s.store }

// Create validates p, rejects a duplicate (first, last) name pair and stores
// it. Any incoming ID is ignored. The returned person carries the new ID.
func (s *Service) Create(ctx context.Context, p domain.Person) (domain.Person, error) {
	var created domain.Person
	err := s.run(ctx, OpCreate, AuditActionCreate, func(ctx context.Context) (int64, error) {
		in := normalize(p)
		in.ID = 0
		if err := s.validate(OpCreate, in); err != nil {
			return 0, err
		}
		if err := s.ensureUnique(ctx, OpCreate, in); err != nil {
			return 0, err
		}
		out, err := s.store.Create(ctx, in)
		if err != nil {
			return 0, domain.NewStorageError(OpCreate, err)
		}
		created = out
		return out.ID, nil
	})
	return created, err
}

// FindByID returns the person with id; found is false when none exists.
func (s *Service) FindByID(ctx context.Context, id int64) (domain.Person, bool, error) {
	var (
		person domain.Person
		found  bool
	)
	err := s.run(ctx, OpFind, "", func(ctx context.Context) (int64, error) {
		if err := validID(OpFind, id); err != nil {
			return id, err
		}
		p, ok, err := s.store.FindByID(ctx, id)
		if err != nil {
			return id, domain.NewStorageError(OpFind, err)
		}
		person, found = p, ok
		return id, nil
	})
	return person, found, err
}

// FindAll returns every contact ordered by last name then first name.
func (s *Service) FindAll(ctx context.Context) ([]domain.Person, error) {
	var all []domain.Person
	err := s.run(ctx, OpList, "", func(ctx context.Context) (int64, error) {
		out, err := s.store.FindAll(ctx)
		if err != nil {
			return 0, domain.NewStorageError(OpList, err)
		}
		all = out
		return 0, nil
	})
	return all, err
}

// Update validates p and replaces the stored record with the same ID. It
// reports false, without error, when no such record exists any more.
func (s *Service) Update(ctx context.Context, p domain.Person) (bool, error) {
	var changed bool
	err := s.run(ctx, OpUpdate, AuditActionUpdate, func(ctx context.Context) (int64, error) {
		if err := validID(OpUpdate, p.ID); err != nil {
			return p.ID, err
		}
		in := normalize(p)
		if err := s.validate(OpUpdate, in); err != nil {
			return p.ID, err
		}
		if err := s.ensureUnique(ctx, OpUpdate, in); err != nil {
			return p.ID, err
		}
		ok, err := s.store.Update(ctx, in)
		if err != nil {
			return p.ID, domain.NewStorageError(OpUpdate, err)
		}
		changed = ok
		return p.ID, nil
	})
	return changed, err
}

// Delete removes the record with id and reports whether one was removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := s.run(ctx, OpDelete, AuditActionDelete, func(ctx context.Context) (int64, error) {
		if err := validID(OpDelete, id); err != nil {
			return id, err
		}
		ok, err := s.store.Delete(ctx, id)
		if err != nil {
			return id, domain.NewStorageError(OpDelete, err)
		}
		removed = ok
		return id, nil
	})
	return removed, err
}

// SearchByName returns contacts whose first or last name contains term,
// ignoring case. A blank term behaves like FindAll.
func (s *Service) SearchByName(ctx context.Context, term string) ([]domain.Person, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.FindAll(ctx)
	}
	var hits []domain.Person
	err := s.run(ctx, OpSearch, "", func(ctx context.Context) (int64, error) {
		out, err := s.store.SearchByName(ctx, term)
		if err != nil {
			return 0, domain.NewStorageError(OpSearch, err)
		}
		hits = out
		return 0, nil
	})
	return hits, err
}

// ensureUnique scans every stored contact for the same normalised name pair,
// skipping the record being updated.
func (s *Service) ensureUnique(ctx context.Context, op string, p domain.Person) error {
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return domain.NewStorageError(op, err)
	}
	key := nameKey(p)
	for _, existing := range all {
		if existing.ID == p.ID && p.ID != 0 {
			continue
		}
		if nameKey(existing) == key {
			return domain.NewConflictError(op, "contact already exists: "+p.FullName(), nil)
		}
	}
	return nil
}

func (s *Service) run(ctx context.Context, op string, action AuditAction, fn func(context.Context) (int64, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	id, err := fn(ctx)
	elapsed := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)

	if action != "" {
		entry := AuditEntry{
			Operation: op,
			Action:    action,
			Entity:    auditEntity,
			EntityID:  id,
			Status:    AuditStatusSuccess,
			Duration:  elapsed,
			Timestamp: s.clock.Now(),
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}

	switch {
	case err == nil:
		s.logger.Debug("operation completed", "operation", op, "id", id, "duration", elapsed)
	case domain.IsStorage(err):
		s.logger.Error("operation failed", "operation", op, "id", id, "error", err)
	default:
		s.logger.Warn("operation rejected", "operation", op, "id", id, "kind", domain.KindOf(err), "error", err)
	}
	return err
}
