package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an Error so callers can branch without inspecting text.
type Kind string

const (
	KindValidation Kind = "validation" // bad input, rejected before storage
	KindConflict   Kind = "conflict"   // an equivalent record already exists
	KindStorage    Kind = "storage"    // underlying database failure
)

// Error is the tagged error returned by the service and the stores.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Fields maps a field name to its first validation problem.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case len(e.Fields) > 0:
		b.WriteString(string(e.Kind))
		b.WriteString(" failed")
	default:
		b.WriteString(string(e.Kind))
		b.WriteString(" error")
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+" "+e.Fields[k])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so errors.Is(err, ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrStorage    = &Error{Kind: KindStorage}
)

// NewValidationError reports a single bad field.
func NewValidationError(op, field, problem string) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: map[string]string{field: problem}}
}

// NewConflictError reports a duplicate record.
func NewConflictError(op, message string, cause error) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: message, Err: cause}
}

// NewStorageError wraps a database failure. A nil cause yields nil.
func NewStorageError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var de *Error
	if errors.As(cause, &de) {
		return cause
	}
	return &Error{Kind: KindStorage, Op: op, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsStorage(err error) bool    { return KindOf(err) == KindStorage }

// Errorf builds a kind-tagged error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}
