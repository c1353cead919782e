package service

import (
	"context"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string  `json:"id"`
	UserID     *string `json:"user_id"` // null for the overdue sweep
	ClientID   *string `json:"client_id"`
	Action     string  `json:"action"`
	EntityKind string  `json:"entity_kind"`
	EntityID   string  `json:"entity_id"`
	FromStatus string  `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	Details    string  `json:"details"`
	CreatedAt  string  `json:"created_at"`
}

type AuditService interface {
	ListClientTrail(ctx context.Context, scope compliance.Scope, clientID string, page, limit int) ([]AuditLogResponse, int64, error)
	ListEntityTrail(ctx context.Context, scope compliance.Scope, kind, id string) ([]AuditLogResponse, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	owners    ownership
	finders   map[compliance.EntityKind]func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// NewAuditService creates a new AuditService instance
func NewAuditService(
	auditRepo repository.AuditRepository,
	clientRepo repository.ClientRepository,
	regRepo repository.RegistrationRepository,
	returnRepo repository.ReturnRepository,
	paymentRepo repository.PaymentRepository,
	noticeRepo repository.NoticeRepository,
) AuditService {
	// Each finder resolves the owning client of a record.
	finders := map[compliance.EntityKind]func(ctx context.Context, id uuid.UUID) (uuid.UUID, error){
		compliance.KindClient: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			return id, nil
		},
		compliance.KindRegistration: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			r, err := regRepo.FindByID(ctx, id)
			if err != nil {
				return uuid.Nil, err
			}
			return r.ClientID, nil
		},
		compliance.KindReturn: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			r, err := returnRepo.FindByID(ctx, id)
			if err != nil {
				return uuid.Nil, err
			}
			return r.ClientID, nil
		},
		compliance.KindPayment: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			p, err := paymentRepo.FindByID(ctx, id)
			if err != nil {
				return uuid.Nil, err
			}
			return p.ClientID, nil
		},
		compliance.KindNotice: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			n, err := noticeRepo.FindByID(ctx, id)
			if err != nil {
				return uuid.Nil, err
			}
			return n.ClientID, nil
		},
	}
	return &auditService{auditRepo: auditRepo, owners: ownership{clients: clientRepo}, finders: finders}
}

// ListClientTrail returns a client's audit entries, newest first.
func (s *auditService) ListClientTrail(ctx context.Context, scope compliance.Scope, clientID string, page, limit int) ([]AuditLogResponse, int64, error) {
	cid, err := parseID(compliance.KindClient, clientID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.owners.client(ctx, scope, cid); err != nil {
		return nil, 0, err
	}

	page, limit = pageDefaults(page, limit)
	logs, total, err := s.auditRepo.ListByClient(ctx, cid, page, limit)
	if err != nil {
		return nil, 0, &compliance.PersistenceError{Op: "list audit logs", Err: err}
	}
	return toAuditResponses(logs), total, nil
}

// ListEntityTrail returns one record's history in the order it happened.
func (s *auditService) ListEntityTrail(ctx context.Context, scope compliance.Scope, kind, id string) ([]AuditLogResponse, error) {
	k := compliance.EntityKind(kind)
	find, ok := s.finders[k]
	if !ok {
		return nil, &compliance.ValidationError{Field: "kind", Value: kind, Reason: "unknown entity kind", Allowed: knownKinds()}
	}
	eid, err := parseID(k, id)
	if err != nil {
		return nil, err
	}
	clientID, err := find(ctx, eid)
	if err != nil {
		return nil, lookupError(k, eid, err)
	}
	if _, err := s.owners.owner(ctx, scope, k, eid, clientID); err != nil {
		return nil, err
	}

	logs, err := s.auditRepo.ListByEntity(ctx, kind, eid)
	if err != nil {
		return nil, &compliance.PersistenceError{Op: "list audit logs", Err: err}
	}
	return toAuditResponses(logs), nil
}

func knownKinds() []string {
	return []string{
		string(compliance.KindClient),
		string(compliance.KindRegistration),
		string(compliance.KindReturn),
		string(compliance.KindPayment),
		string(compliance.KindNotice),
	}
}

func toAuditResponses(logs []model.AuditLog) []AuditLogResponse {
	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		entry := AuditLogResponse{
			ID:         l.ID.String(),
			Action:     l.Action,
			EntityKind: l.EntityKind,
			EntityID:   l.EntityID.String(),
			FromStatus: l.FromStatus,
			ToStatus:   l.ToStatus,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		}
		if l.UserID != nil {
			s := l.UserID.String()
			entry.UserID = &s
		}
		if l.ClientID != nil {
			s := l.ClientID.String()
			entry.ClientID = &s
		}
		res = append(res, entry)
	}
	return res
}
