package compliance

import "github.com/google/uuid"

// Scope is the acting practitioner. Every read and write is limited to
// clients the actor owns; a zero UserID is the system actor used by
// background jobs.
type Scope struct {
	UserID uuid.UUID
}

func SystemScope() Scope {
	return Scope{}
}

func (s Scope) IsSystem() bool {
	return s.UserID == uuid.Nil
}

// Owns reports whether the actor may touch records of a client owned by userID.
func (s Scope) Owns(userID uuid.UUID) bool {
	return s.IsSystem() || s.UserID == userID
}

// Actor returns the user id for audit rows, nil for the system actor.
func (s Scope) Actor() *uuid.UUID {
	if s.IsSystem() {
		return nil
	}
	id := s.UserID
	return &id
}
