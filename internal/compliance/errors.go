package compliance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinels for errors.Is checks at the transport edge.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")
)

// NotFoundError reports a missing or foreign-owned entity.
type NotFoundError struct {
	Kind EntityKind
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a lost race: the entity lock was held or the row
// version moved. The caller may retry with fresh state.
type ConflictError struct {
	Kind   EntityKind
	ID     uuid.UUID
	Reason string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Unwrap() error { return e.Err }

// ValidationError reports bad input. Nothing was written.
type ValidationError struct {
	Kind    EntityKind
	Field   string
	Value   string
	Reason  string
	Allowed []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Kind != "" {
		b.WriteString(string(e.Kind))
		b.WriteString(": ")
	}
	b.WriteString(e.Field)
	if e.Value != "" {
		fmt.Fprintf(&b, " %q", e.Value)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError wraps a storage failure that aborted the unit.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// InvalidStatus builds the ValidationError for a status outside kind's set.
func InvalidStatus(kind EntityKind, status string) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Field:   "status",
		Value:   status,
		Reason:  "unknown status",
		Allowed: kind.Statuses(),
	}
}

// IsTyped reports whether err already belongs to the taxonomy.
func IsTyped(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence)
}

// Persistence wraps err unless it is already one of the typed errors.
func Persistence(op string, err error) error {
	if err == nil || IsTyped(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
