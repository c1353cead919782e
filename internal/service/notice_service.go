package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateNoticeRequest struct {
	ClientID     string            `json:"client_id" binding:"required,uuid"`
	NoticeNumber string            `json:"notice_number"`
	Subject      string            `json:"subject" binding:"required"`
	Description  string            `json:"description"`
	IssuedOn     string            `json:"issued_on"` // YYYY-MM-DD
	ReplyBy      string            `json:"reply_by"`  // YYYY-MM-DD
	Documents    []DocumentPayload `json:"documents" binding:"omitempty,dive"`
}

type UpdateNoticeRequest struct {
	Version      compliance.Field[int64]   `json:"version" swaggertype:"integer"`
	Status       compliance.Field[string]  `json:"status" swaggertype:"string"`
	NoticeNumber compliance.Field[string]  `json:"notice_number" swaggertype:"string"`
	Subject      compliance.Field[string]  `json:"subject" swaggertype:"string"`
	Description  compliance.Field[string]  `json:"description" swaggertype:"string"`
	IssuedOn     compliance.Field[*string] `json:"issued_on" swaggertype:"string"`
	ReplyBy      compliance.Field[*string] `json:"reply_by" swaggertype:"string"`
	ReplyText    compliance.Field[string]  `json:"reply_text" swaggertype:"string"`
	Documents    *[]DocumentPayload        `json:"documents" binding:"omitempty,dive"`
}

type NoticeResponse struct {
	ID           uuid.UUID          `json:"id"`
	ClientID     uuid.UUID          `json:"client_id"`
	NoticeNumber string             `json:"notice_number"`
	Subject      string             `json:"subject"`
	Description  string             `json:"description"`
	IssuedOn     *string            `json:"issued_on"`
	ReplyBy      *string            `json:"reply_by"`
	ReplyText    string             `json:"reply_text"`
	Status       string             `json:"status"`
	RepliedAt    *string            `json:"replied_at"`
	Version      int64              `json:"version"`
	Documents    []DocumentResponse `json:"documents,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// --- Interface ---

type NoticeService interface {
	CreateNotice(ctx context.Context, scope compliance.Scope, req CreateNoticeRequest) (NoticeResponse, error)
	GetNotice(ctx context.Context, scope compliance.Scope, id string) (NoticeResponse, error)
	ListNotices(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]NoticeResponse, int64, error)
	UpdateNotice(ctx context.Context, scope compliance.Scope, id string, req UpdateNoticeRequest) (NoticeResponse, error)
	DeleteNotice(ctx context.Context, scope compliance.Scope, id string) error
}

// --- Implementation ---

type noticeService struct {
	noticeRepo repository.NoticeRepository
	docRepo    repository.DocumentRepository
	txManager  repository.TransactionManager
	engine     *compliance.Engine
	owners     ownership
}

func NewNoticeService(
	noticeRepo repository.NoticeRepository,
	clientRepo repository.ClientRepository,
	docRepo repository.DocumentRepository,
	txManager repository.TransactionManager,
	engine *compliance.Engine,
) NoticeService {
	return &noticeService{
		noticeRepo: noticeRepo,
		docRepo:    docRepo,
		txManager:  txManager,
		engine:     engine,
		owners:     ownership{clients: clientRepo},
	}
}

func optionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateNotice records a department notice. New notices start RECEIVED.
func (s *noticeService) CreateNotice(ctx context.Context, scope compliance.Scope, req CreateNoticeRequest) (NoticeResponse, error) {
	clientID, err := parseID(compliance.KindClient, req.ClientID)
	if err != nil {
		return NoticeResponse{}, err
	}
	if strings.TrimSpace(req.Subject) == "" {
		return NoticeResponse{}, &compliance.ValidationError{Kind: compliance.KindNotice, Field: "subject", Reason: "is required"}
	}
	issuedOn, err := optionalDate("issued_on", req.IssuedOn)
	if err != nil {
		return NoticeResponse{}, err
	}
	replyBy, err := optionalDate("reply_by", req.ReplyBy)
	if err != nil {
		return NoticeResponse{}, err
	}
	if err := validateDocuments(req.Documents); err != nil {
		return NoticeResponse{}, err
	}

	notice := &model.Notice{
		ID:           uuid.New(),
		ClientID:     clientID,
		NoticeNumber: req.NoticeNumber,
		Subject:      req.Subject,
		Description:  req.Description,
		IssuedOn:     issuedOn,
		ReplyBy:      replyBy,
		Status:       model.NoticeStatusReceived,
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindNotice, notice.ID, func(txCtx context.Context) (*compliance.Change, error) {
		client, err := s.owners.client(txCtx, scope, clientID)
		if err != nil {
			return nil, err
		}
		change := &compliance.Change{
			Subject: compliance.SubjectForInsert(notice, client.UserID),
			Insert:  notice,
			Status:  compliance.SetTo(notice.Status),
		}
		if len(req.Documents) > 0 {
			change.Documents = documentSet(model.DocOwnerNotice, notice.ID, clientID, req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return NoticeResponse{}, err
	}

	return s.GetNotice(ctx, scope, notice.ID.String())
}

func (s *noticeService) load(ctx context.Context, scope compliance.Scope, id uuid.UUID) (*model.Notice, *model.Client, error) {
	notice, err := s.noticeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupError(compliance.KindNotice, id, err)
	}
	client, err := s.owners.owner(ctx, scope, compliance.KindNotice, id, notice.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return notice, client, nil
}

func (s *noticeService) GetNotice(ctx context.Context, scope compliance.Scope, id string) (NoticeResponse, error) {
	nid, err := parseID(compliance.KindNotice, id)
	if err != nil {
		return NoticeResponse{}, err
	}
	notice, _, err := s.load(ctx, scope, nid)
	if err != nil {
		return NoticeResponse{}, err
	}
	docs, err := s.docRepo.ListByOwner(ctx, model.DocOwnerNotice, nid)
	if err != nil {
		return NoticeResponse{}, fmt.Errorf("failed to load documents: %w", err)
	}

	resp := toNoticeResponse(*notice)
	resp.Documents = toDocumentResponses(docs)
	return resp, nil
}

func (s *noticeService) ListNotices(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]NoticeResponse, int64, error) {
	cid, err := parseID(compliance.KindClient, clientID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.owners.client(ctx, scope, cid); err != nil {
		return nil, 0, err
	}

	page, limit = pageDefaults(page, limit)
	notices, total, err := s.noticeRepo.ListByClient(ctx, cid, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notices: %w", err)
	}

	out := make([]NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, toNoticeResponse(n))
	}
	return out, total, nil
}

func (s *noticeService) UpdateNotice(ctx context.Context, scope compliance.Scope, id string, req UpdateNoticeRequest) (NoticeResponse, error) {
	nid, err := parseID(compliance.KindNotice, id)
	if err != nil {
		return NoticeResponse{}, err
	}
	if req.Subject.Set && strings.TrimSpace(req.Subject.Value) == "" {
		return NoticeResponse{}, &compliance.ValidationError{Kind: compliance.KindNotice, Field: "subject", Reason: "cannot be empty"}
	}

	fields := map[string]interface{}{}
	req.NoticeNumber.Put(fields, "notice_number")
	req.Subject.Put(fields, "subject")
	req.Description.Put(fields, "description")
	req.ReplyText.Put(fields, "reply_text")
	if err := parseOptionalDate("issued_on", req.IssuedOn, fields, "issued_on"); err != nil {
		return NoticeResponse{}, err
	}
	if err := parseOptionalDate("reply_by", req.ReplyBy, fields, "reply_by"); err != nil {
		return NoticeResponse{}, err
	}
	if req.Documents != nil {
		if err := validateDocuments(*req.Documents); err != nil {
			return NoticeResponse{}, err
		}
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindNotice, nid, func(txCtx context.Context) (*compliance.Change, error) {
		notice, client, err := s.load(txCtx, scope, nid)
		if err != nil {
			return nil, err
		}
		change := &compliance.Change{
			Subject:         compliance.SubjectOf(notice, client.UserID),
			Status:          req.Status,
			ExpectedVersion: req.Version,
			Fields:          fields,
		}
		if req.Documents != nil {
			change.Documents = documentSet(model.DocOwnerNotice, nid, notice.ClientID, *req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return NoticeResponse{}, err
	}

	return s.GetNotice(ctx, scope, id)
}

func (s *noticeService) DeleteNotice(ctx context.Context, scope compliance.Scope, id string) error {
	nid, err := parseID(compliance.KindNotice, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, _, err := s.load(txCtx, scope, nid); err != nil {
			return err
		}
		if err := s.noticeRepo.Delete(txCtx, nid); err != nil {
			return &compliance.PersistenceError{Op: "delete notice", Err: err}
		}
		return nil
	})
}

// --- Mapping ---

func toNoticeResponse(n model.Notice) NoticeResponse {
	return NoticeResponse{
		ID:           n.ID,
		ClientID:     n.ClientID,
		NoticeNumber: n.NoticeNumber,
		Subject:      n.Subject,
		Description:  n.Description,
		IssuedOn:     formatOptional(n.IssuedOn),
		ReplyBy:      formatOptional(n.ReplyBy),
		ReplyText:    n.ReplyText,
		Status:       n.Status,
		RepliedAt:    formatOptional(n.RepliedAt),
		Version:      n.Version,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}
