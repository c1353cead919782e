package compliance

import (
	"time"

	"gstdesk/internal/model"
)

// StampOp says how a timestamp column reacts to a transition.
type StampOp int

const (
	// StampIfUnset writes now only when the column is still empty.
	StampIfUnset StampOp = iota
	// StampAlways writes the supplied time, or now.
	StampAlways
	// StampSupplied writes only when the caller supplied a time.
	StampSupplied
	// StampClear empties the column.
	StampClear
)

// TimestampEffect is a column write implied by a transition.
type TimestampEffect struct {
	Column string
	Op     StampOp
}

// Transition is an accepted status change and the timestamp effects it implies.
// From is empty when the entity is being created.
type Transition struct {
	Kind    EntityKind
	From    string
	To      string
	Effects []TimestampEffect
}

// Entered reports whether the transition moves into To from another status.
func (t Transition) Entered() bool {
	return t.From != t.To
}

// Validate accepts any move between statuses of kind, including backward
// moves and re-entering the current status. A requested status outside the
// kind's set is a ValidationError.
func Validate(kind EntityKind, current, requested string) (Transition, error) {
	if !kind.Known() {
		return Transition{}, &ValidationError{Field: "kind", Value: string(kind), Reason: "unknown entity kind"}
	}
	if !kind.HasStatus(requested) {
		return Transition{}, InvalidStatus(kind, requested)
	}

	t := Transition{Kind: kind, From: current, To: requested}
	t.Effects = effectsFor(t)
	return t, nil
}

func effectsFor(t Transition) []TimestampEffect {
	switch t.Kind {
	case KindRegistration:
		switch t.To {
		case model.RegistrationStatusSubmitted:
			return []TimestampEffect{{Column: "submitted_at", Op: StampIfUnset}}
		case model.RegistrationStatusApproved:
			return []TimestampEffect{{Column: "approved_at", Op: StampIfUnset}}
		}
	case KindReturn:
		if !t.Entered() {
			return nil
		}
		switch t.To {
		case model.ReturnStatusFiled:
			return []TimestampEffect{{Column: "filed_at", Op: StampAlways}}
		case model.ReturnStatusProcessed:
			return []TimestampEffect{{Column: "processed_at", Op: StampAlways}}
		}
	case KindNotice:
		if t.To == model.NoticeStatusReplied && t.Entered() {
			return []TimestampEffect{{Column: "replied_at", Op: StampAlways}}
		}
	case KindPayment:
		if t.To != model.PaymentStatusPaid {
			return []TimestampEffect{{Column: "paid_at", Op: StampClear}}
		}
		if t.Entered() {
			return []TimestampEffect{{Column: "paid_at", Op: StampAlways}}
		}
		// PAID again keeps the recorded date unless a new one is supplied.
		return []TimestampEffect{{Column: "paid_at", Op: StampSupplied}}
	}
	return nil
}

// Stamps resolves the effects into column values. current holds the stored
// timestamps and supplied any caller-provided times, both keyed by column.
func (t Transition) Stamps(current map[string]*time.Time, now time.Time, supplied map[string]time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(t.Effects))
	for _, eff := range t.Effects {
		at, hasSupplied := supplied[eff.Column]
		if !hasSupplied {
			at = now
		}
		switch eff.Op {
		case StampIfUnset:
			if current[eff.Column] == nil {
				out[eff.Column] = at
			}
		case StampAlways:
			out[eff.Column] = at
		case StampSupplied:
			if hasSupplied {
				out[eff.Column] = at
			}
		case StampClear:
			out[eff.Column] = nil
		}
	}
	return out
}
