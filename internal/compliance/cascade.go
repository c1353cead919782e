package compliance

import (
	"time"

	"gstdesk/internal/model"

	"github.com/google/uuid"
)

// Subject is the stored state of the entity a change targets, read inside
// the unit of work.
type Subject struct {
	Kind     EntityKind
	ID       uuid.UUID
	ClientID uuid.UUID
	// OwnerID is the practitioner owning ClientID; alerts are addressed to them.
	OwnerID uuid.UUID
	Status  string
	Version int64
	Stamps  map[string]*time.Time

	// Payments only: the return link after the edit and as stored.
	ReturnID      *uuid.UUID
	PriorReturnID *uuid.UUID
}

// CascadeUpdate is a dependent write computed from a primary transition.
type CascadeUpdate struct {
	Kind   EntityKind
	ID     uuid.UUID
	Status string
	Fields map[string]interface{}
}

// Resolve computes the dependent updates for t. It is pure and one hop deep:
// a cascaded return does not get its own Filed timestamp, and cascades never
// produce further cascades.
func Resolve(s Subject, t Transition) []CascadeUpdate {
	switch t.Kind {
	case KindPayment:
		if t.To != model.PaymentStatusPaid || s.ReturnID == nil {
			return nil
		}
		if !t.Entered() && sameID(s.ReturnID, s.PriorReturnID) {
			return nil
		}
		return []CascadeUpdate{{
			Kind:   KindReturn,
			ID:     *s.ReturnID,
			Status: model.ReturnStatusFiled,
			Fields: map[string]interface{}{"status": model.ReturnStatusFiled},
		}}
	case KindRegistration:
		if t.To != model.RegistrationStatusApproved || !t.Entered() {
			return nil
		}
		return []CascadeUpdate{{
			Kind:   KindClient,
			ID:     s.ClientID,
			Status: model.GSTStatusActive,
			Fields: map[string]interface{}{"gst_status": model.GSTStatusActive},
		}}
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
