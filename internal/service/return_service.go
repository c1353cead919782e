package service

import (
	"context"
	"fmt"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"
	"gstdesk/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateReturnRequest struct {
	ClientID     string            `json:"client_id" binding:"required,uuid"`
	ReturnType   string            `json:"return_type" binding:"required,oneof=GSTR1 GSTR3B GSTR4 GSTR9"`
	Period       string            `json:"period" binding:"required,period"` // YYYY-MM
	DueDate      string            `json:"due_date" binding:"required"`      // YYYY-MM-DD
	TaxLiability string            `json:"tax_liability"`
	ARN          string            `json:"arn"`
	Status       string            `json:"status"` // defaults to Draft
	Documents    []DocumentPayload `json:"documents" binding:"omitempty,dive"`
}

type UpdateReturnRequest struct {
	Version      compliance.Field[int64]  `json:"version" swaggertype:"integer"`
	Status       compliance.Field[string] `json:"status" swaggertype:"string"`
	ReturnType   compliance.Field[string] `json:"return_type" swaggertype:"string"`
	Period       compliance.Field[string] `json:"period" swaggertype:"string"`
	DueDate      compliance.Field[string] `json:"due_date" swaggertype:"string"`
	TaxLiability compliance.Field[string] `json:"tax_liability" swaggertype:"string"`
	ARN          compliance.Field[string] `json:"arn" swaggertype:"string"`
	Documents    *[]DocumentPayload       `json:"documents" binding:"omitempty,dive"`
}

type ReturnFilter struct {
	ClientID string
	Status   string
	Period   string
	Page     int
	Limit    int
}

type ReturnResponse struct {
	ID           uuid.UUID          `json:"id"`
	ClientID     uuid.UUID          `json:"client_id"`
	ReturnType   string             `json:"return_type"`
	Period       string             `json:"period"`
	DueDate      string             `json:"due_date"`
	TaxLiability string             `json:"tax_liability"`
	ARN          string             `json:"arn"`
	Status       string             `json:"status"`
	FiledAt      *string            `json:"filed_at"`
	ProcessedAt  *string            `json:"processed_at"`
	Version      int64              `json:"version"`
	Documents    []DocumentResponse `json:"documents,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// --- Interface ---

type ReturnService interface {
	CreateReturn(ctx context.Context, scope compliance.Scope, req CreateReturnRequest) (ReturnResponse, error)
	GetReturn(ctx context.Context, scope compliance.Scope, id string) (ReturnResponse, error)
	ListReturns(ctx context.Context, scope compliance.Scope, filter ReturnFilter) ([]ReturnResponse, int64, error)
	UpdateReturn(ctx context.Context, scope compliance.Scope, id string, req UpdateReturnRequest) (ReturnResponse, error)
	DeleteReturn(ctx context.Context, scope compliance.Scope, id string) error
	// MarkOverdue moves a Draft return past its due date to Overdue. It
	// reports false when the return was no longer eligible.
	MarkOverdue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// --- Implementation ---

type returnService struct {
	returnRepo repository.ReturnRepository
	docRepo    repository.DocumentRepository
	txManager  repository.TransactionManager
	engine     *compliance.Engine
	owners     ownership
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	clientRepo repository.ClientRepository,
	docRepo repository.DocumentRepository,
	txManager repository.TransactionManager,
	engine *compliance.Engine,
) ReturnService {
	return &returnService{
		returnRepo: returnRepo,
		docRepo:    docRepo,
		txManager:  txManager,
		engine:     engine,
		owners:     ownership{clients: clientRepo},
	}
}

var validReturnTypes = map[string]bool{
	model.ReturnTypeGSTR1:  true,
	model.ReturnTypeGSTR3B: true,
	model.ReturnTypeGSTR4:  true,
	model.ReturnTypeGSTR9:  true,
}

func parseAmount(kind compliance.EntityKind, field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &compliance.ValidationError{Kind: kind, Field: field, Value: value, Reason: "must be a decimal number"}
	}
	if amount.IsNegative() {
		return decimal.Zero, &compliance.ValidationError{Kind: kind, Field: field, Value: value, Reason: "must not be negative"}
	}
	return amount, nil
}

func (s *returnService) CreateReturn(ctx context.Context, scope compliance.Scope, req CreateReturnRequest) (ReturnResponse, error) {
	clientID, err := parseID(compliance.KindClient, req.ClientID)
	if err != nil {
		return ReturnResponse{}, err
	}
	if !validReturnTypes[req.ReturnType] {
		return ReturnResponse{}, &compliance.ValidationError{Kind: compliance.KindReturn, Field: "return_type", Value: req.ReturnType, Reason: "must be one of: GSTR1, GSTR3B, GSTR4, GSTR9"}
	}
	if !validation.IsPeriod(req.Period) {
		return ReturnResponse{}, &compliance.ValidationError{Kind: compliance.KindReturn, Field: "period", Value: req.Period, Reason: "must be YYYY-MM"}
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return ReturnResponse{}, err
	}
	liability, err := parseAmount(compliance.KindReturn, "tax_liability", req.TaxLiability)
	if err != nil {
		return ReturnResponse{}, err
	}
	status := req.Status
	if status == "" {
		status = model.ReturnStatusDraft
	}
	if err := validateDocuments(req.Documents); err != nil {
		return ReturnResponse{}, err
	}

	ret := &model.GSTReturn{
		ID:           uuid.New(),
		ClientID:     clientID,
		ReturnType:   req.ReturnType,
		Period:       req.Period,
		DueDate:      due,
		TaxLiability: liability,
		ARN:          req.ARN,
		Status:       status,
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindReturn, ret.ID, func(txCtx context.Context) (*compliance.Change, error) {
		client, err := s.owners.client(txCtx, scope, clientID)
		if err != nil {
			return nil, err
		}
		change := &compliance.Change{
			Subject: compliance.SubjectForInsert(ret, client.UserID),
			Insert:  ret,
			Status:  compliance.SetTo(status),
		}
		if len(req.Documents) > 0 {
			change.Documents = documentSet(model.DocOwnerReturn, ret.ID, clientID, req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return ReturnResponse{}, err
	}

	return s.GetReturn(ctx, scope, ret.ID.String())
}

func (s *returnService) load(ctx context.Context, scope compliance.Scope, id uuid.UUID) (*model.GSTReturn, *model.Client, error) {
	ret, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupError(compliance.KindReturn, id, err)
	}
	client, err := s.owners.owner(ctx, scope, compliance.KindReturn, id, ret.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return ret, client, nil
}

func (s *returnService) GetReturn(ctx context.Context, scope compliance.Scope, id string) (ReturnResponse, error) {
	retID, err := parseID(compliance.KindReturn, id)
	if err != nil {
		return ReturnResponse{}, err
	}
	ret, _, err := s.load(ctx, scope, retID)
	if err != nil {
		return ReturnResponse{}, err
	}
	docs, err := s.docRepo.ListByOwner(ctx, model.DocOwnerReturn, retID)
	if err != nil {
		return ReturnResponse{}, fmt.Errorf("failed to load documents: %w", err)
	}

	resp := toReturnResponse(*ret)
	resp.Documents = toDocumentResponses(docs)
	return resp, nil
}

func (s *returnService) ListReturns(ctx context.Context, scope compliance.Scope, filter ReturnFilter) ([]ReturnResponse, int64, error) {
	cid, err := parseID(compliance.KindClient, filter.ClientID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.owners.client(ctx, scope, cid); err != nil {
		return nil, 0, err
	}

	page, limit := pageDefaults(filter.Page, filter.Limit)
	returns, total, err := s.returnRepo.List(ctx, repository.ReturnListFilter{
		ClientID: cid,
		Status:   filter.Status,
		Period:   filter.Period,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list returns: %w", err)
	}

	out := make([]ReturnResponse, 0, len(returns))
	for _, r := range returns {
		out = append(out, toReturnResponse(r))
	}
	return out, total, nil
}

func (s *returnService) UpdateReturn(ctx context.Context, scope compliance.Scope, id string, req UpdateReturnRequest) (ReturnResponse, error) {
	retID, err := parseID(compliance.KindReturn, id)
	if err != nil {
		return ReturnResponse{}, err
	}

	fields := map[string]interface{}{}
	if req.ReturnType.Set {
		if !validReturnTypes[req.ReturnType.Value] {
			return ReturnResponse{}, &compliance.ValidationError{Kind: compliance.KindReturn, Field: "return_type", Value: req.ReturnType.Value, Reason: "must be one of: GSTR1, GSTR3B, GSTR4, GSTR9"}
		}
		fields["return_type"] = req.ReturnType.Value
	}
	if req.Period.Set {
		if !validation.IsPeriod(req.Period.Value) {
			return ReturnResponse{}, &compliance.ValidationError{Kind: compliance.KindReturn, Field: "period", Value: req.Period.Value, Reason: "must be YYYY-MM"}
		}
		fields["period"] = req.Period.Value
	}
	if req.DueDate.Set {
		due, err := parseDate("due_date", req.DueDate.Value)
		if err != nil {
			return ReturnResponse{}, err
		}
		fields["due_date"] = due
	}
	if req.TaxLiability.Set {
		liability, err := parseAmount(compliance.KindReturn, "tax_liability", req.TaxLiability.Value)
		if err != nil {
			return ReturnResponse{}, err
		}
		fields["tax_liability"] = liability
	}
	req.ARN.Put(fields, "arn")
	if req.Documents != nil {
		if err := validateDocuments(*req.Documents); err != nil {
			return ReturnResponse{}, err
		}
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindReturn, retID, func(txCtx context.Context) (*compliance.Change, error) {
		ret, client, err := s.load(txCtx, scope, retID)
		if err != nil {
			return nil, err
		}
		change := &compliance.Change{
			Subject:         compliance.SubjectOf(ret, client.UserID),
			Status:          req.Status,
			ExpectedVersion: req.Version,
			Fields:          fields,
		}
		if req.Documents != nil {
			change.Documents = documentSet(model.DocOwnerReturn, retID, ret.ClientID, *req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return ReturnResponse{}, err
	}

	return s.GetReturn(ctx, scope, id)
}

func (s *returnService) DeleteReturn(ctx context.Context, scope compliance.Scope, id string) error {
	retID, err := parseID(compliance.KindReturn, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, _, err := s.load(txCtx, scope, retID); err != nil {
			return err
		}
		if err := s.returnRepo.Delete(txCtx, retID); err != nil {
			return &compliance.PersistenceError{Op: "delete return", Err: err}
		}
		return nil
	})
}

func (s *returnService) MarkOverdue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	scope := compliance.SystemScope()
	marked := false

	_, err := s.engine.Apply(ctx, scope, compliance.KindReturn, id, func(txCtx context.Context) (*compliance.Change, error) {
		ret, client, err := s.load(txCtx, scope, id)
		if err != nil {
			return nil, err
		}
		change := &compliance.Change{Subject: compliance.SubjectOf(ret, client.UserID)}
		// Re-checked under the lock: the return may have been filed since
		// the sweep listed it.
		if ret.Status == model.ReturnStatusDraft && ret.DueDate.Before(now) {
			change.Status = compliance.SetTo(model.ReturnStatusOverdue)
			marked = true
		}
		return change, nil
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

// --- Mapping ---

func toReturnResponse(r model.GSTReturn) ReturnResponse {
	return ReturnResponse{
		ID:           r.ID,
		ClientID:     r.ClientID,
		ReturnType:   r.ReturnType,
		Period:       r.Period,
		DueDate:      r.DueDate.Format(dateLayout),
		TaxLiability: r.TaxLiability.StringFixed(2),
		ARN:          r.ARN,
		Status:       r.Status,
		FiledAt:      formatOptional(r.FiledAt),
		ProcessedAt:  formatOptional(r.ProcessedAt),
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
