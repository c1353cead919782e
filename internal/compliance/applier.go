package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gstdesk/internal/metrics"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Write is the primary mutation of a unit.
type Write struct {
	Kind     EntityKind
	ID       uuid.UUID
	ClientID uuid.UUID
	// Insert is the new record when the unit creates the entity.
	Insert interface{}
	// Version is the row version the unit was planned against.
	Version    int64
	Fields     map[string]interface{}
	FromStatus string
	ToStatus   string
}

// DocumentSet replaces every document of one owner.
type DocumentSet struct {
	OwnerType string
	OwnerID   uuid.UUID
	Docs      []model.Document
}

// Unit is everything that commits or fails together.
type Unit struct {
	Primary   Write
	Cascades  []CascadeUpdate
	Documents *DocumentSet
	Actor     *uuid.UUID
}

// Committed describes what a unit actually wrote.
type Committed struct {
	Unit     *Unit
	Cascades []AppliedCascade
}

// AppliedCascade is a cascade that changed its target.
type AppliedCascade struct {
	CascadeUpdate
	ClientID uuid.UUID
	From     string
}

// Applier commits units atomically under the primary entity's lock.
type Applier struct {
	tx      repository.TransactionManager
	store   repository.MutationRepository
	docs    repository.DocumentRepository
	audit   repository.AuditRepository
	locker  Locker
	metrics *metrics.Metrics
	log     *logrus.Logger
}

func NewApplier(
	tx repository.TransactionManager,
	store repository.MutationRepository,
	docs repository.DocumentRepository,
	audit repository.AuditRepository,
	locker Locker,
	m *metrics.Metrics,
	log *logrus.Logger,
) *Applier {
	return &Applier{tx: tx, store: store, docs: docs, audit: audit, locker: locker, metrics: m, log: log}
}

// Apply locks (kind, id), opens a transaction and calls plan to build the
// unit from state read inside it. Any error rolls the whole unit back.
func (a *Applier) Apply(ctx context.Context, kind EntityKind, id uuid.UUID, plan func(txCtx context.Context) (*Unit, error)) (*Committed, error) {
	start := time.Now()
	defer a.metrics.ObserveApply(start)

	release, err := a.locker.Obtain(ctx, LockKey(kind, id.String()))
	if err != nil {
		a.metrics.IncConflict(string(kind))
		return nil, &ConflictError{Kind: kind, ID: id, Reason: "another update is in progress", Err: err}
	}
	defer release()

	var committed *Committed
	err = a.tx.RunInTx(ctx, func(txCtx context.Context) error {
		unit, err := plan(txCtx)
		if err != nil {
			return err
		}
		committed, err = a.write(txCtx, unit)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			a.metrics.IncConflict(string(kind))
		}
		return nil, Persistence("apply "+string(kind), err)
	}
	return committed, nil
}

type cascadeTarget struct {
	update CascadeUpdate
	state  repository.RowState
}

func (a *Applier) write(ctx context.Context, u *Unit) (*Committed, error) {
	p := u.Primary

	// Cascade targets must exist before anything is written.
	targets := make([]cascadeTarget, 0, len(u.Cascades))
	for _, c := range u.Cascades {
		state, err := a.store.CurrentState(ctx, c.Kind.Table(), c.Kind.StatusColumn(), c.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Kind: c.Kind, ID: c.ID}
		}
		if err != nil {
			return nil, &PersistenceError{Op: "read " + string(c.Kind), Err: err}
		}
		targets = append(targets, cascadeTarget{update: c, state: state})
	}

	if p.Insert != nil {
		if err := a.store.Insert(ctx, p.Insert, p.Fields); err != nil {
			return nil, &PersistenceError{Op: "insert " + string(p.Kind), Err: err}
		}
	} else if len(p.Fields) > 0 {
		if err := a.updateVersioned(ctx, p.Kind, p.ID, p.Version, p.Fields); err != nil {
			return nil, err
		}
	}

	committed := &Committed{Unit: u}
	for _, t := range targets {
		if t.state.Status == t.update.Status {
			continue
		}
		if err := a.updateVersioned(ctx, t.update.Kind, t.update.ID, t.state.Version, t.update.Fields); err != nil {
			return nil, err
		}
		committed.Cascades = append(committed.Cascades, AppliedCascade{
			CascadeUpdate: t.update,
			ClientID:      p.ClientID,
			From:          t.state.Status,
		})
	}

	if u.Documents != nil {
		if err := a.docs.ReplaceForOwner(ctx, u.Documents.OwnerType, u.Documents.OwnerID, u.Documents.Docs); err != nil {
			return nil, &PersistenceError{Op: "replace documents", Err: err}
		}
	}

	if p.Insert == nil && len(p.Fields) == 0 && len(committed.Cascades) == 0 && u.Documents == nil {
		return committed, nil
	}
	if err := a.writeAudit(ctx, u, committed); err != nil {
		return nil, err
	}
	return committed, nil
}

func (a *Applier) updateVersioned(ctx context.Context, kind EntityKind, id uuid.UUID, version int64, fields map[string]interface{}) error {
	err := a.store.UpdateVersioned(ctx, kind.Table(), id, version, fields)
	if errors.Is(err, repository.ErrStaleVersion) {
		return &ConflictError{Kind: kind, ID: id, Reason: "modified concurrently", Err: err}
	}
	if err != nil {
		return &PersistenceError{Op: "update " + string(kind), Err: err}
	}
	return nil
}

func (a *Applier) writeAudit(ctx context.Context, u *Unit, c *Committed) error {
	p := u.Primary
	clientID := p.ClientID

	action := model.ActionUpdate
	switch {
	case p.Insert != nil:
		action = model.ActionCreate
	case p.ToStatus != "":
		action = model.ActionStatusTransition
	}

	entries := []*model.AuditLog{{
		UserID:     u.Actor,
		ClientID:   &clientID,
		Action:     action,
		EntityKind: string(p.Kind),
		EntityID:   p.ID,
		FromStatus: p.FromStatus,
		ToStatus:   p.ToStatus,
		Details:    details(p.Fields),
	}}
	for _, cc := range c.Cascades {
		entries = append(entries, &model.AuditLog{
			UserID:     u.Actor,
			ClientID:   &clientID,
			Action:     model.ActionCascadeUpdate,
			EntityKind: string(cc.Kind),
			EntityID:   cc.ID,
			FromStatus: cc.From,
			ToStatus:   cc.Status,
			Details:    details(cc.Fields),
		})
	}

	for _, e := range entries {
		if err := a.audit.Log(ctx, e); err != nil {
			return &PersistenceError{Op: "write audit", Err: err}
		}
	}
	return nil
}

func details(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return "{}"
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(b)
}
