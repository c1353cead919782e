package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"
	"gstdesk/pkg/validation"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateClientRequest struct {
	Name      string            `json:"name" binding:"required"`
	PAN       string            `json:"pan" binding:"omitempty,pan"`
	GSTIN     string            `json:"gstin" binding:"omitempty,gstin"`
	Email     string            `json:"email" binding:"omitempty,email"`
	Phone     string            `json:"phone"`
	Address   string            `json:"address"`
	Documents []DocumentPayload `json:"documents" binding:"omitempty,dive"`
}

type UpdateClientRequest struct {
	Version   compliance.Field[int64]  `json:"version" swaggertype:"integer"`
	Name      compliance.Field[string] `json:"name" swaggertype:"string"`
	PAN       compliance.Field[string] `json:"pan" swaggertype:"string"`
	GSTIN     compliance.Field[string] `json:"gstin" swaggertype:"string"`
	Email     compliance.Field[string] `json:"email" swaggertype:"string"`
	Phone     compliance.Field[string] `json:"phone" swaggertype:"string"`
	Address   compliance.Field[string] `json:"address" swaggertype:"string"`
	GSTStatus compliance.Field[string] `json:"gst_status" swaggertype:"string"`
	Documents *[]DocumentPayload       `json:"documents" binding:"omitempty,dive"` // nil = not sent, [] = clear all
}

type ClientFilter struct {
	Search    string
	GSTStatus string
	Page      int
	Limit     int
}

type ClientResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	PAN       string             `json:"pan"`
	GSTIN     string             `json:"gstin"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone"`
	Address   string             `json:"address"`
	GSTStatus string             `json:"gst_status"`
	Version   int64              `json:"version"`
	Documents []DocumentResponse `json:"documents,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// --- Interface ---

type ClientService interface {
	CreateClient(ctx context.Context, scope compliance.Scope, req CreateClientRequest) (ClientResponse, error)
	GetClient(ctx context.Context, scope compliance.Scope, id string) (ClientResponse, error)
	ListClients(ctx context.Context, scope compliance.Scope, filter ClientFilter) ([]ClientResponse, int64, error)
	UpdateClient(ctx context.Context, scope compliance.Scope, id string, req UpdateClientRequest) (ClientResponse, error)
	DeleteClient(ctx context.Context, scope compliance.Scope, id string) error
}

// --- Implementation ---

type clientService struct {
	clientRepo repository.ClientRepository
	docRepo    repository.DocumentRepository
	txManager  repository.TransactionManager
	engine     *compliance.Engine
	owners     ownership
}

func NewClientService(
	clientRepo repository.ClientRepository,
	docRepo repository.DocumentRepository,
	txManager repository.TransactionManager,
	engine *compliance.Engine,
) ClientService {
	return &clientService{
		clientRepo: clientRepo,
		docRepo:    docRepo,
		txManager:  txManager,
		engine:     engine,
		owners:     ownership{clients: clientRepo},
	}
}

func validateClientFields(name, pan, gstin, email string) error {
	if strings.TrimSpace(name) == "" {
		return &compliance.ValidationError{Kind: compliance.KindClient, Field: "name", Reason: "is required"}
	}
	if pan != "" && !validation.IsPAN(pan) {
		return &compliance.ValidationError{Kind: compliance.KindClient, Field: "pan", Value: pan, Reason: "is not a valid PAN"}
	}
	if gstin != "" && !validation.IsGSTIN(gstin) {
		return &compliance.ValidationError{Kind: compliance.KindClient, Field: "gstin", Value: gstin, Reason: "is not a valid GSTIN"}
	}
	if pan != "" && gstin != "" && validation.PANOfGSTIN(gstin) != pan {
		return &compliance.ValidationError{Kind: compliance.KindClient, Field: "gstin", Value: gstin, Reason: "does not embed the client's PAN"}
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return &compliance.ValidationError{Kind: compliance.KindClient, Field: "email", Value: email, Reason: "invalid email format"}
		}
	}
	return nil
}

func (s *clientService) CreateClient(ctx context.Context, scope compliance.Scope, req CreateClientRequest) (ClientResponse, error) {
	if err := validateClientFields(req.Name, req.PAN, req.GSTIN, req.Email); err != nil {
		return ClientResponse{}, err
	}
	if err := validateDocuments(req.Documents); err != nil {
		return ClientResponse{}, err
	}

	client := &model.Client{
		ID:        uuid.New(),
		UserID:    scope.UserID,
		Name:      req.Name,
		PAN:       req.PAN,
		GSTIN:     req.GSTIN,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		GSTStatus: model.GSTStatusInactive, // becomes ACTIVE once a registration is approved
	}

	_, err := s.engine.Apply(ctx, scope, compliance.KindClient, client.ID, func(txCtx context.Context) (*compliance.Change, error) {
		change := &compliance.Change{
			Subject: compliance.SubjectForInsert(client, scope.UserID),
			Insert:  client,
			Status:  compliance.SetTo(client.GSTStatus),
		}
		if len(req.Documents) > 0 {
			change.Documents = documentSet(model.DocOwnerClient, client.ID, client.ID, req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return ClientResponse{}, err
	}

	return s.GetClient(ctx, scope, client.ID.String())
}

func (s *clientService) GetClient(ctx context.Context, scope compliance.Scope, id string) (ClientResponse, error) {
	clientID, err := parseID(compliance.KindClient, id)
	if err != nil {
		return ClientResponse{}, err
	}
	client, err := s.owners.client(ctx, scope, clientID)
	if err != nil {
		return ClientResponse{}, err
	}
	docs, err := s.docRepo.ListByOwner(ctx, model.DocOwnerClient, clientID)
	if err != nil {
		return ClientResponse{}, fmt.Errorf("failed to load documents: %w", err)
	}

	resp := toClientResponse(*client)
	resp.Documents = toDocumentResponses(docs)
	return resp, nil
}

func (s *clientService) ListClients(ctx context.Context, scope compliance.Scope, filter ClientFilter) ([]ClientResponse, int64, error) {
	page, limit := pageDefaults(filter.Page, filter.Limit)
	clients, total, err := s.clientRepo.List(ctx, repository.ClientListFilter{
		UserID:    scope.UserID,
		Search:    filter.Search,
		GSTStatus: filter.GSTStatus,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}

	out := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientResponse(c))
	}
	return out, total, nil
}

// UpdateClient edits client fields. Setting gst_status to ACTIVE by hand is
// only accepted when the client already has an approved registration.
func (s *clientService) UpdateClient(ctx context.Context, scope compliance.Scope, id string, req UpdateClientRequest) (ClientResponse, error) {
	clientID, err := parseID(compliance.KindClient, id)
	if err != nil {
		return ClientResponse{}, err
	}
	if req.Documents != nil {
		if err := validateDocuments(*req.Documents); err != nil {
			return ClientResponse{}, err
		}
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindClient, clientID, func(txCtx context.Context) (*compliance.Change, error) {
		client, err := s.owners.client(txCtx, scope, clientID)
		if err != nil {
			return nil, err
		}

		if err := validateClientFields(
			req.Name.Or(client.Name), req.PAN.Or(client.PAN), req.GSTIN.Or(client.GSTIN), req.Email.Or(client.Email),
		); err != nil {
			return nil, err
		}

		if req.GSTStatus.Set && req.GSTStatus.Value == model.GSTStatusActive && client.GSTStatus != model.GSTStatusActive {
			approved, err := s.clientRepo.HasApprovedRegistration(txCtx, clientID)
			if err != nil {
				return nil, &compliance.PersistenceError{Op: "check registrations", Err: err}
			}
			if !approved {
				return nil, &compliance.ValidationError{
					Kind:   compliance.KindClient,
					Field:  "gst_status",
					Value:  model.GSTStatusActive,
					Reason: "requires an approved registration",
				}
			}
		}

		fields := map[string]interface{}{}
		req.Name.Put(fields, "name")
		req.PAN.Put(fields, "pan")
		req.GSTIN.Put(fields, "gstin")
		req.Email.Put(fields, "email")
		req.Phone.Put(fields, "phone")
		req.Address.Put(fields, "address")

		change := &compliance.Change{
			Subject:         compliance.SubjectOf(client, client.UserID),
			Status:          req.GSTStatus,
			ExpectedVersion: req.Version,
			Fields:          fields,
		}
		if req.Documents != nil {
			change.Documents = documentSet(model.DocOwnerClient, clientID, clientID, *req.Documents)
		}
		return change, nil
	})
	if err != nil {
		return ClientResponse{}, err
	}

	return s.GetClient(ctx, scope, id)
}

func (s *clientService) DeleteClient(ctx context.Context, scope compliance.Scope, id string) error {
	clientID, err := parseID(compliance.KindClient, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.owners.client(txCtx, scope, clientID); err != nil {
			return err
		}
		if err := s.clientRepo.Delete(txCtx, clientID); err != nil {
			return &compliance.PersistenceError{Op: "delete client", Err: err}
		}
		return nil
	})
}

// --- Mapping ---

func toClientResponse(c model.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		PAN:       c.PAN,
		GSTIN:     c.GSTIN,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		GSTStatus: c.GSTStatus,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
