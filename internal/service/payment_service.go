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

type CreatePaymentRequest struct {
	ClientID      string  `json:"client_id" binding:"required,uuid"`
	ReturnID      *string `json:"return_id" binding:"omitempty,uuid"`
	ChallanNumber string  `json:"challan_number"`
	Amount        string  `json:"amount" binding:"required"`
	Mode          string  `json:"mode"`
	Status        string  `json:"status"`    // defaults to DRAFT
	PaidDate      string  `json:"paid_date"` // used when status is PAID, defaults to now
}

type UpdatePaymentRequest struct {
	Version       compliance.Field[int64]   `json:"version" swaggertype:"integer"`
	Status        compliance.Field[string]  `json:"status" swaggertype:"string"`
	ReturnID      compliance.Field[*string] `json:"return_id" swaggertype:"string"` // null unlinks
	ChallanNumber compliance.Field[string]  `json:"challan_number" swaggertype:"string"`
	Amount        compliance.Field[string]  `json:"amount" swaggertype:"string"`
	Mode          compliance.Field[string]  `json:"mode" swaggertype:"string"`
	PaidDate      compliance.Field[string]  `json:"paid_date" swaggertype:"string"`
}

type PaymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      uuid.UUID  `json:"client_id"`
	ReturnID      *uuid.UUID `json:"return_id"`
	ChallanNumber string     `json:"challan_number"`
	Amount        string     `json:"amount"`
	Mode          string     `json:"mode"`
	Status        string     `json:"status"`
	PaidAt        *string    `json:"paid_at"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// --- Interface ---

type PaymentService interface {
	CreatePayment(ctx context.Context, scope compliance.Scope, req CreatePaymentRequest) (PaymentResponse, error)
	GetPayment(ctx context.Context, scope compliance.Scope, id string) (PaymentResponse, error)
	ListPayments(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]PaymentResponse, int64, error)
	UpdatePayment(ctx context.Context, scope compliance.Scope, id string, req UpdatePaymentRequest) (PaymentResponse, error)
	DeletePayment(ctx context.Context, scope compliance.Scope, id string) error
}

// --- Implementation ---

type paymentService struct {
	paymentRepo repository.PaymentRepository
	returnRepo  repository.ReturnRepository
	txManager   repository.TransactionManager
	engine      *compliance.Engine
	owners      ownership
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	returnRepo repository.ReturnRepository,
	clientRepo repository.ClientRepository,
	txManager repository.TransactionManager,
	engine *compliance.Engine,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		returnRepo:  returnRepo,
		txManager:   txManager,
		engine:      engine,
		owners:      ownership{clients: clientRepo},
	}
}

// linkedReturn checks that the return exists and belongs to the payment's client.
func (s *paymentService) linkedReturn(ctx context.Context, raw string, clientID uuid.UUID) (*uuid.UUID, error) {
	rid, err := uuid.Parse(raw)
	if err != nil {
		return nil, &compliance.ValidationError{Kind: compliance.KindPayment, Field: "return_id", Value: raw, Reason: "must be a UUID"}
	}
	ret, err := s.returnRepo.FindByID(ctx, rid)
	if err != nil {
		return nil, lookupError(compliance.KindReturn, rid, err)
	}
	if ret.ClientID != clientID {
		return nil, &compliance.ValidationError{Kind: compliance.KindPayment, Field: "return_id", Value: raw, Reason: "belongs to another client"}
	}
	return &rid, nil
}

func (s *paymentService) CreatePayment(ctx context.Context, scope compliance.Scope, req CreatePaymentRequest) (PaymentResponse, error) {
	clientID, err := parseID(compliance.KindClient, req.ClientID)
	if err != nil {
		return PaymentResponse{}, err
	}
	amount, err := parseAmount(compliance.KindPayment, "amount", req.Amount)
	if err != nil {
		return PaymentResponse{}, err
	}
	status := req.Status
	if status == "" {
		status = model.PaymentStatusDraft
	}
	supplied := map[string]time.Time{}
	if req.PaidDate != "" {
		paid, err := parseDate("paid_date", req.PaidDate)
		if err != nil {
			return PaymentResponse{}, err
		}
		supplied["paid_at"] = paid
	}

	payment := &model.GSTPayment{
		ID:            uuid.New(),
		ClientID:      clientID,
		ChallanNumber: req.ChallanNumber,
		Amount:        amount,
		Mode:          req.Mode,
		Status:        status,
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindPayment, payment.ID, func(txCtx context.Context) (*compliance.Change, error) {
		client, err := s.owners.client(txCtx, scope, clientID)
		if err != nil {
			return nil, err
		}
		if req.ReturnID != nil && *req.ReturnID != "" {
			rid, err := s.linkedReturn(txCtx, *req.ReturnID, clientID)
			if err != nil {
				return nil, err
			}
			payment.ReturnID = rid
		}
		return &compliance.Change{
			Subject:        compliance.SubjectForInsert(payment, client.UserID),
			Insert:         payment,
			Status:         compliance.SetTo(status),
			SuppliedStamps: supplied,
		}, nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	return s.GetPayment(ctx, scope, payment.ID.String())
}

func (s *paymentService) load(ctx context.Context, scope compliance.Scope, id uuid.UUID) (*model.GSTPayment, *model.Client, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupError(compliance.KindPayment, id, err)
	}
	client, err := s.owners.owner(ctx, scope, compliance.KindPayment, id, payment.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return payment, client, nil
}

func (s *paymentService) GetPayment(ctx context.Context, scope compliance.Scope, id string) (PaymentResponse, error) {
	pid, err := parseID(compliance.KindPayment, id)
	if err != nil {
		return PaymentResponse{}, err
	}
	payment, _, err := s.load(ctx, scope, pid)
	if err != nil {
		return PaymentResponse{}, err
	}
	return toPaymentResponse(*payment), nil
}

func (s *paymentService) ListPayments(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]PaymentResponse, int64, error) {
	cid, err := parseID(compliance.KindClient, clientID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.owners.client(ctx, scope, cid); err != nil {
		return nil, 0, err
	}

	page, limit = pageDefaults(page, limit)
	payments, total, err := s.paymentRepo.ListByClient(ctx, cid, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out, total, nil
}

// UpdatePayment edits the payment and runs status changes through the
// engine. Reaching PAID with a linked return files that return in the same
// unit; leaving PAID clears paid_at.
func (s *paymentService) UpdatePayment(ctx context.Context, scope compliance.Scope, id string, req UpdatePaymentRequest) (PaymentResponse, error) {
	pid, err := parseID(compliance.KindPayment, id)
	if err != nil {
		return PaymentResponse{}, err
	}

	fields := map[string]interface{}{}
	if req.Amount.Set {
		amount, err := parseAmount(compliance.KindPayment, "amount", req.Amount.Value)
		if err != nil {
			return PaymentResponse{}, err
		}
		fields["amount"] = amount
	}
	req.ChallanNumber.Put(fields, "challan_number")
	req.Mode.Put(fields, "mode")

	supplied := map[string]time.Time{}
	if req.PaidDate.Set && req.PaidDate.Value != "" {
		paid, err := parseDate("paid_date", req.PaidDate.Value)
		if err != nil {
			return PaymentResponse{}, err
		}
		supplied["paid_at"] = paid
	}

	_, err = s.engine.Apply(ctx, scope, compliance.KindPayment, pid, func(txCtx context.Context) (*compliance.Change, error) {
		payment, client, err := s.load(txCtx, scope, pid)
		if err != nil {
			return nil, err
		}

		subject := compliance.SubjectOf(payment, client.UserID)
		if req.ReturnID.Set {
			if req.ReturnID.Value == nil || *req.ReturnID.Value == "" {
				subject.ReturnID = nil
			} else {
				rid, err := s.linkedReturn(txCtx, *req.ReturnID.Value, payment.ClientID)
				if err != nil {
					return nil, err
				}
				subject.ReturnID = rid
			}
			fields["return_id"] = subject.ReturnID
		}

		status := req.Status
		if len(supplied) > 0 && !status.Set {
			// A new paid date alone re-confirms the current PAID status.
			if payment.Status != model.PaymentStatusPaid {
				return nil, &compliance.ValidationError{Kind: compliance.KindPayment, Field: "paid_date", Value: req.PaidDate.Value, Reason: "requires status PAID"}
			}
			status = compliance.SetTo(payment.Status)
		}
		if status.Set && status.Value != model.PaymentStatusPaid && len(supplied) > 0 {
			return nil, &compliance.ValidationError{Kind: compliance.KindPayment, Field: "paid_date", Value: req.PaidDate.Value, Reason: "requires status PAID"}
		}
		// Re-linking a PAID payment files the newly linked return.
		if !status.Set && req.ReturnID.Set && payment.Status == model.PaymentStatusPaid {
			status = compliance.SetTo(payment.Status)
		}

		return &compliance.Change{
			Subject:         subject,
			Status:          status,
			ExpectedVersion: req.Version,
			Fields:          fields,
			SuppliedStamps:  supplied,
		}, nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	return s.GetPayment(ctx, scope, id)
}

func (s *paymentService) DeletePayment(ctx context.Context, scope compliance.Scope, id string) error {
	pid, err := parseID(compliance.KindPayment, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, _, err := s.load(txCtx, scope, pid); err != nil {
			return err
		}
		if err := s.paymentRepo.Delete(txCtx, pid); err != nil {
			return &compliance.PersistenceError{Op: "delete payment", Err: err}
		}
		return nil
	})
}

// --- Mapping ---

func toPaymentResponse(p model.GSTPayment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		ClientID:      p.ClientID,
		ReturnID:      p.ReturnID,
		ChallanNumber: p.ChallanNumber,
		Amount:        p.Amount.StringFixed(2),
		Mode:          p.Mode,
		Status:        p.Status,
		PaidAt:        formatOptional(p.PaidAt),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
