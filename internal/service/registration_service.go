package service

import (
	"context"
	"fmt"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateRegistrationRequest struct {
	ClientID         string            `json:"client_id" binding:"required,uuid"`
	RegistrationType string            `json:"registration_type" binding:"omitempty,oneof=REGULAR COMPOSITION CASUAL"`
	StateCode        string            `json:"state_code" binding:"omitempty,len=2,numeric"`
	ARN              string            `json:"arn"`
	Status           string            `json:"status"` // defaults to Draft
	Remarks          string            `json:"remarks"`
	Documents        []DocumentPayload `json:"documents" binding:"omitempty,dive"`
}

type UpdateRegistrationRequest struct {
	Version          compliance.Field[int64]  `json:"version" swaggertype:"integer"`
	Status           compliance.Field[string] `json:"status" swaggertype:"string"`
	RegistrationType compliance.Field[string] `json:"registration_type" swaggertype:"string"`
	StateCode        compliance.Field[string] `json:"state_code" swaggertype:"string"`
	ARN              compliance.Field[string] `json:"arn" swaggertype:"string"`
	Remarks          compliance.Field[string] `json:"remarks" swaggertype:"string"`
	Documents        *[]DocumentPayload       `json:"documents" binding:"omitempty,dive"`
}

type RegistrationResponse struct {
	ID               uuid.UUID          `json:"id"`
	ClientID         uuid.UUID          `json:"client_id"`
	RegistrationType string             `json:"registration_type"`
	StateCode        string             `json:"state_code"`
	ARN              string             `json:"arn"`
	Status           string             `json:"status"`
	SubmittedAt      *string            `json:"submitted_at"`
	ApprovedAt       *string            `json:"approved_at"`
	Remarks          string             `json:"remarks"`
	Version          int64              `json:"version"`
	Documents        []DocumentResponse `json:"documents,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// --- Interface ---

type RegistrationService interface {
	CreateRegistration(ctx context.Context, scope compliance.Scope, req CreateRegistrationRequest) (RegistrationResponse, error)
	GetRegistration(ctx context.Context, scope compliance.Scope, id string) (RegistrationResponse, error)
	ListRegistrations(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]RegistrationResponse, int64, error)
	UpdateRegistration(ctx context.Context, scope compliance.Scope, id string, req UpdateRegistrationRequest) (RegistrationResponse, error)
	DeleteRegistration(ctx context.Context, scope compliance.Scope, id string) error
}

// --- Implementation ---

type registrationService struct {
	regRepo   repository.RegistrationRepository
	docRepo   repository.DocumentRepository
	txManager repository.TransactionManager
	engine    *compliance.Engine
	owners    ownership
}

func NewRegistrationService(
	regRepo repository.RegistrationRepository,
	clientRepo repository.ClientRepository,
	docRepo repository.DocumentRepository,
	txManager repository.TransactionManager,
	engine *compliance.Engine,
) RegistrationService {
	return &registrationService{
		regRepo:   regRepo,
		docRepo:   docRepo,
		txManager: txManager,
		engine:    engine,
		owners:    ownership{clients: clientRepo},
	}
}

var validRegistrationTypes = map[string]bool{
	model.RegistrationTypeRegular:     true,
	model.RegistrationTypeComposition: true,
	model.RegistrationTypeCasual:      true,
}

func (s *registrationService) CreateRegistration(ctx context.Context, scope compliance.Scope, req CreateRegistrationRequest) (RegistrationResponse, error) {
	clientID, err := parseID(compliance.KindClient, req.ClientID)
	if err != nil {
		return RegistrationResponse{}, err
	}
	regType := req.RegistrationType
	if regType == "" {
		regType = model.RegistrationTypeRegular
	}
	if !validRegistrationTypes[regType] {
		return RegistrationResponse{}, &compliance.ValidationError{Kind: compliance.KindRegistration, Field: "registration_type", Value: regType, Reason: "must be one of: REGULAR, COMPOSITION, CASUAL"}
	}
	status := req.Status
	if status == "" {
		status = model.RegistrationStatusDraft
	}
	if err := validateDocuments(req.Documents); err != nil {
		return RegistrationResponse{}, err
	}

	reg := &model.GSTRegistration{
		ID:               uuid.New(),
		ClientID:         clientID,
		RegistrationType: regType,
		StateCode:        req.StateCode,
		ARN:              req.ARN,
		Status:           status,
		Remarks:          req.Remarks,
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindRegistration, reg.ID, func(txCtx context.Context) (*compliance.Change, error) {
		client, err := s.owners.client(txCtx, scope, clientID)
		if err != nil {
			return nil, err
		}
		change := &compliance.Change{
			Subject: compliance.SubjectForInsert(reg, client.UserID),
			Insert:  reg,
			Status:  compliance.SetTo(status),
		}
		if len(req.Documents) > 0 {
			change.Documents = documentSet(model.DocOwnerRegistration, reg.ID, clientID, req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return RegistrationResponse{}, err
	}

	return s.GetRegistration(ctx, scope, reg.ID.String())
}

func (s *registrationService) load(ctx context.Context, scope compliance.Scope, id uuid.UUID) (*model.GSTRegistration, *model.Client, error) {
	reg, err := s.regRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupError(compliance.KindRegistration, id, err)
	}
	client, err := s.owners.owner(ctx, scope, compliance.KindRegistration, id, reg.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return reg, client, nil
}

func (s *registrationService) GetRegistration(ctx context.Context, scope compliance.Scope, id string) (RegistrationResponse, error) {
	regID, err := parseID(compliance.KindRegistration, id)
	if err != nil {
		return RegistrationResponse{}, err
	}
	reg, _, err := s.load(ctx, scope, regID)
	if err != nil {
		return RegistrationResponse{}, err
	}
	docs, err := s.docRepo.ListByOwner(ctx, model.DocOwnerRegistration, regID)
	if err != nil {
		return RegistrationResponse{}, fmt.Errorf("failed to load documents: %w", err)
	}

	resp := toRegistrationResponse(*reg)
	resp.Documents = toDocumentResponses(docs)
	return resp, nil
}

func (s *registrationService) ListRegistrations(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]RegistrationResponse, int64, error) {
	cid, err := parseID(compliance.KindClient, clientID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.owners.client(ctx, scope, cid); err != nil {
		return nil, 0, err
	}

	page, limit = pageDefaults(page, limit)
	regs, total, err := s.regRepo.ListByClient(ctx, cid, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list registrations: %w", err)
	}

	out := make([]RegistrationResponse, 0, len(regs))
	for _, r := range regs {
		out = append(out, toRegistrationResponse(r))
	}
	return out, total, nil
}

// UpdateRegistration edits fields and, when status is sent, moves the
// registration through the compliance engine. Approval activates the client
// in the same unit.
func (s *registrationService) UpdateRegistration(ctx context.Context, scope compliance.Scope, id string, req UpdateRegistrationRequest) (RegistrationResponse, error) {
	regID, err := parseID(compliance.KindRegistration, id)
	if err != nil {
		return RegistrationResponse{}, err
	}
	if req.RegistrationType.Set && !validRegistrationTypes[req.RegistrationType.Value] {
		return RegistrationResponse{}, &compliance.ValidationError{Kind: compliance.KindRegistration, Field: "registration_type", Value: req.RegistrationType.Value, Reason: "must be one of: REGULAR, COMPOSITION, CASUAL"}
	}
	if req.Documents != nil {
		if err := validateDocuments(*req.Documents); err != nil {
			return RegistrationResponse{}, err
		}
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindRegistration, regID, func(txCtx context.Context) (*compliance.Change, error) {
		reg, client, err := s.load(txCtx, scope, regID)
		if err != nil {
			return nil, err
		}

		fields := map[string]interface{}{}
		req.RegistrationType.Put(fields, "registration_type")
		req.StateCode.Put(fields, "state_code")
		req.ARN.Put(fields, "arn")
		req.Remarks.Put(fields, "remarks")

		change := &compliance.Change{
			Subject:         compliance.SubjectOf(reg, client.UserID),
			Status:          req.Status,
			ExpectedVersion: req.Version,
			Fields:          fields,
		}
		if req.Documents != nil {
			change.Documents = documentSet(model.DocOwnerRegistration, regID, reg.ClientID, *req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return RegistrationResponse{}, err
	}

	return s.GetRegistration(ctx, scope, id)
}

func (s *registrationService) DeleteRegistration(ctx context.Context, scope compliance.Scope, id string) error {
	regID, err := parseID(compliance.KindRegistration, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, _, err := s.load(txCtx, scope, regID); err != nil {
			return err
		}
		if err := s.regRepo.Delete(txCtx, regID); err != nil {
			return &compliance.PersistenceError{Op: "delete registration", Err: err}
		}
		return nil
	})
}

// --- Mapping ---

func toRegistrationResponse(r model.GSTRegistration) RegistrationResponse {
	return RegistrationResponse{
		ID:               r.ID,
		ClientID:         r.ClientID,
		RegistrationType: r.RegistrationType,
		StateCode:        r.StateCode,
		ARN:              r.ARN,
		Status:           r.Status,
		SubmittedAt:      formatOptional(r.SubmittedAt),
		ApprovedAt:       formatOptional(r.ApprovedAt),
		Remarks:          r.Remarks,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
