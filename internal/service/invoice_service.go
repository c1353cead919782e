package service

import (
	"context"
	"fmt"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type InvoiceItemPayload struct {
	Description string `json:"description" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	TaxRate     string `json:"tax_rate"` // percent, e.g. "18"
}

type CreateInvoiceRequest struct {
	ClientID  string               `json:"client_id" binding:"required,uuid"`
	IssueDate string               `json:"issue_date"` // defaults to today
	DueDate   string               `json:"due_date"`
	Notes     string               `json:"notes"`
	Items     []InvoiceItemPayload `json:"items" binding:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	Status  compliance.Field[string]  `json:"status" swaggertype:"string"`
	DueDate compliance.Field[*string] `json:"due_date" swaggertype:"string"`
	Notes   compliance.Field[string]  `json:"notes" swaggertype:"string"`
	Items   *[]InvoiceItemPayload     `json:"items" binding:"omitempty,dive"`
}

type InvoiceItemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TaxRate     string `json:"tax_rate"`
	Amount      string `json:"amount"`
}

type InvoiceResponse struct {
	ID        string                `json:"id"`
	ClientID  string                `json:"client_id"`
	InvoiceNo string                `json:"invoice_no"`
	IssueDate string                `json:"issue_date"`
	DueDate   *string               `json:"due_date"`
	Subtotal  string                `json:"subtotal"`
	TaxAmount string                `json:"tax_amount"`
	Total     string                `json:"total"`
	Status    string                `json:"status"`
	Notes     string                `json:"notes"`
	Items     []InvoiceItemResponse `json:"items"`
	CreatedAt string                `json:"created_at"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, scope compliance.Scope, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, scope compliance.Scope, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, scope compliance.Scope, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, scope compliance.Scope, id string) error
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	txManager   repository.TransactionManager
	owners      ownership
	now         func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	txManager repository.TransactionManager,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		txManager:   txManager,
		owners:      ownership{clients: clientRepo},
		now:         time.Now,
	}
}

var validInvoiceStatuses = map[string]bool{
	model.InvoiceStatusDraft:     true,
	model.InvoiceStatusSent:      true,
	model.InvoiceStatusPaid:      true,
	model.InvoiceStatusCancelled: true,
}

const invoiceKind compliance.EntityKind = "invoice"

// buildItems computes line amounts and the invoice totals.
func buildItems(payloads []InvoiceItemPayload) ([]model.InvoiceItem, decimal.Decimal, decimal.Decimal, error) {
	items := make([]model.InvoiceItem, 0, len(payloads))
	subtotal := decimal.Zero
	tax := decimal.Zero
	hundred := decimal.NewFromInt(100)

	for _, p := range payloads {
		qty, err := decimal.NewFromString(p.Quantity)
		if err != nil || !qty.IsPositive() {
			return nil, decimal.Zero, decimal.Zero, &compliance.ValidationError{Kind: invoiceKind, Field: "items.quantity", Value: p.Quantity, Reason: "must be a positive number"}
		}
		price, err := parseAmount(invoiceKind, "items.unit_price", p.UnitPrice)
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}
		rate, err := parseAmount(invoiceKind, "items.tax_rate", p.TaxRate)
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}

		amount := qty.Mul(price).Round(2)
		subtotal = subtotal.Add(amount)
		tax = tax.Add(amount.Mul(rate).Div(hundred).Round(2))

		items = append(items, model.InvoiceItem{
			Description: p.Description,
			Quantity:    qty,
			UnitPrice:   price,
			TaxRate:     rate,
			Amount:      amount,
		})
	}
	return items, subtotal, tax, nil
}

func (s *invoiceService) generateInvoiceNo(ctx context.Context) (string, error) {
	today := s.now().Format("20060102")
	prefix := "INV-" + today + "-"

	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, scope compliance.Scope, req CreateInvoiceRequest) (InvoiceResponse, error) {
	clientID, err := parseID(compliance.KindClient, req.ClientID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	issue := s.now().UTC().Truncate(24 * time.Hour)
	if req.IssueDate != "" {
		if issue, err = parseDate("issue_date", req.IssueDate); err != nil {
			return InvoiceResponse{}, err
		}
	}
	due, err := optionalDate("due_date", req.DueDate)
	if err != nil {
		return InvoiceResponse{}, err
	}
	items, subtotal, tax, err := buildItems(req.Items)
	if err != nil {
		return InvoiceResponse{}, err
	}

	invoice := &model.Invoice{
		ClientID:  clientID,
		IssueDate: issue,
		DueDate:   due,
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
		Status:    model.InvoiceStatusDraft,
		Notes:     req.Notes,
		Items:     items,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.owners.client(txCtx, scope, clientID); err != nil {
			return err
		}
		invoiceNo, err := s.generateInvoiceNo(txCtx)
		if err != nil {
			return &compliance.PersistenceError{Op: "generate invoice number", Err: err}
		}
		invoice.InvoiceNo = invoiceNo
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return &compliance.PersistenceError{Op: "create invoice", Err: err}
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return s.GetInvoice(ctx, scope, invoice.ID.String())
}

func (s *invoiceService) load(ctx context.Context, scope compliance.Scope, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(invoiceKind, id, err)
	}
	if _, err := s.owners.owner(ctx, scope, invoiceKind, id, invoice.ClientID); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, scope compliance.Scope, id string) (InvoiceResponse, error) {
	iid, err := parseID(invoiceKind, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	invoice, err := s.load(ctx, scope, iid)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(*invoice), nil
}

// ListInvoices lists one client's invoices, or all of the actor's when
// clientID is empty.
func (s *invoiceService) ListInvoices(ctx context.Context, scope compliance.Scope, clientID, status string, page, limit int) ([]InvoiceResponse, int64, error) {
	page, limit = pageDefaults(page, limit)

	var clientIDs []uuid.UUID
	if clientID != "" {
		cid, err := parseID(compliance.KindClient, clientID)
		if err != nil {
			return nil, 0, err
		}
		if _, err := s.owners.client(ctx, scope, cid); err != nil {
			return nil, 0, err
		}
		clientIDs = []uuid.UUID{cid}
	} else {
		clients, _, err := s.clientRepo.List(ctx, repository.ClientListFilter{UserID: scope.UserID, Page: 1, Limit: -1})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list clients: %w", err)
		}
		for _, c := range clients {
			clientIDs = append(clientIDs, c.ID)
		}
	}

	invoices, total, err := s.invoiceRepo.List(ctx, clientIDs, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	return out, total, nil
}

// UpdateInvoice edits status, due date, notes and items. Only DRAFT invoices
// accept new items.
func (s *invoiceService) UpdateInvoice(ctx context.Context, scope compliance.Scope, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	iid, err := parseID(invoiceKind, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	if req.Status.Set && !validInvoiceStatuses[req.Status.Value] {
		return InvoiceResponse{}, &compliance.ValidationError{
			Kind: invoiceKind, Field: "status", Value: req.Status.Value, Reason: "unknown status",
			Allowed: []string{model.InvoiceStatusDraft, model.InvoiceStatusSent, model.InvoiceStatusPaid, model.InvoiceStatusCancelled},
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.load(txCtx, scope, iid)
		if err != nil {
			return err
		}

		if req.Items != nil {
			if invoice.Status != model.InvoiceStatusDraft {
				return &compliance.ValidationError{Kind: invoiceKind, Field: "items", Reason: "can only change on a DRAFT invoice"}
			}
			items, subtotal, tax, err := buildItems(*req.Items)
			if err != nil {
				return err
			}
			if err := s.invoiceRepo.ReplaceItems(txCtx, iid, items); err != nil {
				return &compliance.PersistenceError{Op: "replace invoice items", Err: err}
			}
			invoice.Subtotal = subtotal
			invoice.TaxAmount = tax
			invoice.Total = subtotal.Add(tax)
		}
		if req.Status.Set {
			invoice.Status = req.Status.Value
		}
		if req.Notes.Set {
			invoice.Notes = req.Notes.Value
		}
		if req.DueDate.Set {
			due := ""
			if req.DueDate.Value != nil {
				due = *req.DueDate.Value
			}
			if invoice.DueDate, err = optionalDate("due_date", due); err != nil {
				return err
			}
		}

		invoice.Items = nil
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return &compliance.PersistenceError{Op: "update invoice", Err: err}
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return s.GetInvoice(ctx, scope, id)
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, scope compliance.Scope, id string) error {
	iid, err := parseID(invoiceKind, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.load(txCtx, scope, iid); err != nil {
			return err
		}
		if err := s.invoiceRepo.Delete(txCtx, iid); err != nil {
			return &compliance.PersistenceError{Op: "delete invoice", Err: err}
		}
		return nil
	})
}

// --- Mapping ---

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:        inv.ID.String(),
		ClientID:  inv.ClientID.String(),
		InvoiceNo: inv.InvoiceNo,
		IssueDate: inv.IssueDate.Format(dateLayout),
		Subtotal:  inv.Subtotal.StringFixed(2),
		TaxAmount: inv.TaxAmount.StringFixed(2),
		Total:     inv.Total.StringFixed(2),
		Status:    inv.Status,
		Notes:     inv.Notes,
		Items:     make([]InvoiceItemResponse, 0, len(inv.Items)),
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.DueDate != nil {
		s := inv.DueDate.Format(dateLayout)
		resp.DueDate = &s
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			TaxRate:     item.TaxRate.String(),
			Amount:      item.Amount.StringFixed(2),
		})
	}
	return resp
}
