package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"contactbook/pkg/domain"
)

// Directory is the caller-side contact list. It reloads from the service
// after every write it performs, so its contents never drift from storage
// because of its own mutations.
type Directory struct {
	svc *Service

	mu       sync.RWMutex
	contacts []domain.Person
}

// NewDirectory returns an empty directory; call Reload to populate it.
func NewDirectory(svc *Service) *Directory {
	return &Directory{svc: svc}
}

// Reload replaces the list with the current contents of the store.
func (d *Directory) Reload(ctx context.Context) error {
	all, err := d.svc.FindAll(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.contacts = all
	d.mu.Unlock()
	return nil
}

// Add creates p and reloads.
func (d *Directory) Add(ctx context.Context, p domain.Person) (domain.Person, error) {
	created, err := d.svc.Create(ctx, p)
	if err != nil {
		return domain.Person{}, err
	}
	return created, d.reloadAfter(ctx, string(AuditActionCreate))
}

// Edit updates p and reloads. A false result still reloads because it means
// the record vanished underneath the caller.
func (d *Directory) Edit(ctx context.Context, p domain.Person) (bool, error) {
	ok, err := d.svc.Update(ctx, p)
	if err != nil {
		return false, err
	}
	return ok, d.reloadAfter(ctx, string(AuditActionUpdate))
}

// Remove deletes id and reloads.
func (d *Directory) Remove(ctx context.Context, id int64) (bool, error) {
	ok, err := d.svc.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	return ok, d.reloadAfter(ctx, string(AuditActionDelete))
}

func (d *Directory) reloadAfter(ctx context.Context, what string) error {
	if err := d.Reload(ctx); err != nil {
		return fmt.Errorf("reload after %s: %w", what, err)
	}
	return nil
}

// Contacts returns a copy of the current list.
func (d *Directory) Contacts() []domain.Person {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Person, len(d.contacts))
	for i, p := range d.contacts {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of loaded contacts.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.contacts)
}

// Filter returns loaded contacts whose full name, nickname, phone or email
// contains term, ignoring case. A blank term returns everything.
func (d *Directory) Filter(term string) []domain.Person {
	q := strings.ToLower(strings.TrimSpace(term))
	all := d.Contacts()
	if q == "" {
		return all
	}
	out := make([]domain.Person, 0, len(all))
	for _, p := range all {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p domain.Person, q string) bool {
	for _, field := range []string{p.FullName(), p.Nickname, p.Phone, p.Email} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Stats renders the list footer: "N contacts", or "X of N contacts" when a
// filter hides some of them.
func (d *Directory) Stats(shown int) string {
	total := d.Len()
	noun := "contacts"
	if total == 1 {
		noun = "contact"
	}
	if shown == total {
		return fmt.Sprintf("%d %s", total, noun)
	}
	return fmt.Sprintf("%d of %d %s", shown, total, noun)
}
