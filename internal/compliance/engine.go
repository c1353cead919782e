package compliance

import (
	"context"
	"errors"
	"time"

	"gstdesk/internal/metrics"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Change is a requested update to one entity, built from state read inside
// the unit of work.
type Change struct {
	Subject Subject
	// Insert is set when the change creates the entity; Subject.Status is
	// then empty and Status carries the initial status.
	Insert interface{}
	// Status is the requested status; unset leaves the status alone.
	Status Field[string]
	// ExpectedVersion, when set, must equal the stored version.
	ExpectedVersion Field[int64]
	// Fields are plain column edits.
	Fields map[string]interface{}
	// SuppliedStamps overrides "now" for timestamp effects, by column.
	SuppliedStamps map[string]time.Time
	// Documents, when non-nil, replaces the owner's documents.
	Documents *DocumentSet
}

// Event is a committed status change handed to the trigger.
type Event struct {
	Kind     EntityKind
	ID       uuid.UUID
	ClientID uuid.UUID
	UserID   uuid.UUID
	From     string
	To       string
	Cascade  bool
	Created  bool
}

// Trigger observes committed transitions. Errors are logged, never returned
// to the caller.
type Trigger interface {
	Observe(ctx context.Context, ev Event) error
}

// Outcome reports what a committed change did.
type Outcome struct {
	Transition *Transition
	Cascades   []AppliedCascade
}

// Engine runs status changes through validation, cascade resolution, the
// atomic applier and finally the notification trigger.
type Engine struct {
	applier *Applier
	trigger Trigger
	metrics *metrics.Metrics
	log     *logrus.Logger
	now     func() time.Time
}

func NewEngine(applier *Applier, trigger Trigger, m *metrics.Metrics, log *logrus.Logger) *Engine {
	return &Engine{
		applier: applier,
		trigger: trigger,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source for timestamp effects.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SetTrigger replaces the post-commit observer.
func (e *Engine) SetTrigger(t Trigger) {
	e.trigger = t
}

var errNestedUnit = errors.New("compliance unit started inside an open transaction")

// Apply locks (kind, id) and calls build inside a transaction to read the
// current state and describe the change. It returns after commit; the
// trigger runs only for committed units.
func (e *Engine) Apply(ctx context.Context, scope Scope, kind EntityKind, id uuid.UUID, build func(txCtx context.Context) (*Change, error)) (*Outcome, error) {
	if repository.InTx(ctx) {
		return nil, &PersistenceError{Op: "apply " + string(kind), Err: errNestedUnit}
	}

	var out Outcome
	var subject Subject
	var created bool

	committed, err := e.applier.Apply(ctx, kind, id, func(txCtx context.Context) (*Unit, error) {
		change, err := build(txCtx)
		if err != nil {
			return nil, err
		}
		subject = change.Subject
		created = change.Insert != nil
		return e.plan(scope, kind, id, change, &out)
	})
	if err != nil {
		return nil, err
	}

	out.Cascades = committed.Cascades
	e.record(&out)
	e.notify(ctx, subject, created, &out)
	return &out, nil
}

func (e *Engine) plan(scope Scope, kind EntityKind, id uuid.UUID, change *Change, out *Outcome) (*Unit, error) {
	s := change.Subject
	if v := change.ExpectedVersion; v.Set && (v.Null || v.Value < 1) {
		return nil, &ValidationError{Kind: kind, Field: "version", Reason: "must be a positive integer"}
	}
	if change.ExpectedVersion.Set && change.Insert == nil && change.ExpectedVersion.Value != s.Version {
		return nil, &ConflictError{Kind: kind, ID: id, Reason: "version mismatch"}
	}

	fields := make(map[string]interface{}, len(change.Fields)+2)
	for k, v := range change.Fields {
		fields[k] = v
	}

	unit := &Unit{
		Primary: Write{
			Kind:     kind,
			ID:       id,
			ClientID: s.ClientID,
			Insert:   change.Insert,
			Version:  s.Version,
			Fields:   fields,
		},
		Documents: change.Documents,
		Actor:     scope.Actor(),
	}

	if change.Status.Set {
		t, err := Validate(kind, s.Status, change.Status.Value)
		if err != nil {
			return nil, err
		}
		if change.Insert == nil {
			fields[kind.StatusColumn()] = t.To
		}
		for col, v := range t.Stamps(s.Stamps, e.now(), change.SuppliedStamps) {
			fields[col] = v
		}
		unit.Primary.FromStatus = t.From
		unit.Primary.ToStatus = t.To
		unit.Cascades = Resolve(s, t)
		out.Transition = &t
	}
	return unit, nil
}

func (e *Engine) record(out *Outcome) {
	if out.Transition != nil && out.Transition.Entered() {
		e.metrics.IncTransition(string(out.Transition.Kind), out.Transition.To)
	}
	for _, c := range out.Cascades {
		e.metrics.IncCascade(string(c.Kind))
	}
}

// notify runs after commit. Failures are logged and counted only.
func (e *Engine) notify(ctx context.Context, s Subject, created bool, out *Outcome) {
	if e.trigger == nil {
		return
	}

	var events []Event
	if t := out.Transition; t != nil && t.Entered() {
		events = append(events, Event{
			Kind: t.Kind, ID: s.ID, ClientID: s.ClientID, UserID: s.OwnerID,
			From: t.From, To: t.To, Created: created,
		})
	}
	for _, c := range out.Cascades {
		events = append(events, Event{
			Kind: c.Kind, ID: c.ID, ClientID: c.ClientID, UserID: s.OwnerID,
			From: c.From, To: c.Status, Cascade: true,
		})
	}

	for _, ev := range events {
		if err := e.observe(ctx, ev); err != nil {
			e.metrics.IncAlertFailure()
			e.log.WithFields(logrus.Fields{
				"module":      "compliance",
				"func":        "Engine.notify",
				"entity_kind": ev.Kind,
				"entity_id":   ev.ID,
				"status":      ev.To,
			}).WithError(err).Warn("notification trigger failed")
		}
	}
}

func (e *Engine) observe(ctx context.Context, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("trigger panicked")
			e.log.WithField("panic", r).Error("notification trigger panicked")
		}
	}()
	return e.trigger.Observe(ctx, ev)
}

func stamps(pairs ...interface{}) map[string]*time.Time {
	out := make(map[string]*time.Time, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		col, _ := pairs[i].(string)
		at, _ := pairs[i+1].(*time.Time)
		out[col] = at
	}
	return out
}

// SubjectOf builds the Subject for a stored compliance record.
func SubjectOf(record interface{}, ownerID uuid.UUID) Subject {
	switch r := record.(type) {
	case *model.GSTRegistration:
		return Subject{
			Kind: KindRegistration, ID: r.ID, ClientID: r.ClientID, OwnerID: ownerID,
			Status: r.Status, Version: r.Version,
			Stamps: stamps("submitted_at", r.SubmittedAt, "approved_at", r.ApprovedAt),
		}
	case *model.GSTReturn:
		return Subject{
			Kind: KindReturn, ID: r.ID, ClientID: r.ClientID, OwnerID: ownerID,
			Status: r.Status, Version: r.Version,
			Stamps: stamps("filed_at", r.FiledAt, "processed_at", r.ProcessedAt),
		}
	case *model.GSTPayment:
		return Subject{
			Kind: KindPayment, ID: r.ID, ClientID: r.ClientID, OwnerID: ownerID,
			Status: r.Status, Version: r.Version,
			Stamps:   stamps("paid_at", r.PaidAt),
			ReturnID: r.ReturnID, PriorReturnID: r.ReturnID,
		}
	case *model.Notice:
		return Subject{
			Kind: KindNotice, ID: r.ID, ClientID: r.ClientID, OwnerID: ownerID,
			Status: r.Status, Version: r.Version,
			Stamps: stamps("replied_at", r.RepliedAt),
		}
	case *model.Client:
		return Subject{
			Kind: KindClient, ID: r.ID, ClientID: r.ID, OwnerID: ownerID,
			Status: r.GSTStatus, Version: r.Version,
		}
	}
	return Subject{}
}

// SubjectForInsert builds the Subject for a record about to be created: no
// stored status, no stored stamps and no prior return link.
func SubjectForInsert(record interface{}, ownerID uuid.UUID) Subject {
	s := SubjectOf(record, ownerID)
	s.Status = ""
	s.Version = 0
	s.Stamps = nil
	s.PriorReturnID = nil
	return s
}
