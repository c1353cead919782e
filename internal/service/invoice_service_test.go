package service

import (
	"testing"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoiceService(s *stack) *invoiceService {
	svc := NewInvoiceService(repository.NewInvoiceRepository(s.db), s.repos.client, repository.NewTransactionManager(s.db)).(*invoiceService)
	svc.now = func() time.Time { return s.now }
	return svc
}

func TestBuildItems(t *testing.T) {
	items, subtotal, tax, err := buildItems([]InvoiceItemPayload{
		{Description: "GSTR-3B filing", Quantity: "3", UnitPrice: "1500", TaxRate: "18"},
		{Description: "Notice reply", Quantity: "1.5", UnitPrice: "999.99"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "4500.00", items[0].Amount.StringFixed(2))
	assert.Equal(t, "1499.99", items[1].Amount.StringFixed(2))
	assert.Equal(t, "5999.99", subtotal.StringFixed(2))
	assert.Equal(t, "810.00", tax.StringFixed(2))

	_, _, _, err = buildItems([]InvoiceItemPayload{{Description: "x", Quantity: "0", UnitPrice: "1"}})
	assert.ErrorIs(t, err, compliance.ErrValidation)
	_, _, _, err = buildItems([]InvoiceItemPayload{{Description: "x", Quantity: "1", UnitPrice: "abc"}})
	assert.ErrorIs(t, err, compliance.ErrValidation)
}

func TestCreateInvoiceNumbersPerDay(t *testing.T) {
	s := newStack(t)
	svc := newInvoiceService(s)
	c := s.client(t)
	req := CreateInvoiceRequest{
		ClientID: c.ID.String(),
		DueDate:  "2024-07-31",
		Items:    []InvoiceItemPayload{{Description: "Monthly retainer", Quantity: "1", UnitPrice: "5000", TaxRate: "18"}},
	}

	first, err := svc.CreateInvoice(s.ctx(), s.scope, req)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240701-00001", first.InvoiceNo)
	assert.Equal(t, "2024-07-01", first.IssueDate)
	assert.Equal(t, "5900.00", first.Total)
	assert.Equal(t, model.InvoiceStatusDraft, first.Status)
	require.NotNil(t, first.DueDate)
	require.Len(t, first.Items, 1)

	second, err := svc.CreateInvoice(s.ctx(), s.scope, req)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240701-00002", second.InvoiceNo)

	list, total, err := svc.ListInvoices(s.ctx(), s.scope, "", "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)
}

func TestUpdateInvoiceItemsOnlyWhileDraft(t *testing.T) {
	s := newStack(t)
	svc := newInvoiceService(s)
	c := s.client(t)
	inv, err := svc.CreateInvoice(s.ctx(), s.scope, CreateInvoiceRequest{
		ClientID: c.ID.String(),
		Items:    []InvoiceItemPayload{{Description: "Filing", Quantity: "1", UnitPrice: "1000"}},
	})
	require.NoError(t, err)

	items := []InvoiceItemPayload{
		{Description: "Filing", Quantity: "1", UnitPrice: "1000", TaxRate: "18"},
		{Description: "Reconciliation", Quantity: "2", UnitPrice: "250", TaxRate: "18"},
	}
	inv, err = svc.UpdateInvoice(s.ctx(), s.scope, inv.ID, UpdateInvoiceRequest{Items: &items})
	require.NoError(t, err)
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, "1500.00", inv.Subtotal)
	assert.Equal(t, "1770.00", inv.Total)

	inv, err = svc.UpdateInvoice(s.ctx(), s.scope, inv.ID, UpdateInvoiceRequest{Status: compliance.SetTo(model.InvoiceStatusSent)})
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusSent, inv.Status)
	assert.Len(t, inv.Items, 2, "header updates keep the items")

	_, err = svc.UpdateInvoice(s.ctx(), s.scope, inv.ID, UpdateInvoiceRequest{Items: &items})
	var verr *compliance.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Field)

	_, err = svc.UpdateInvoice(s.ctx(), s.scope, inv.ID, UpdateInvoiceRequest{Status: compliance.SetTo("VOID")})
	assert.ErrorIs(t, err, compliance.ErrValidation)
}

func TestInvoiceScoping(t *testing.T) {
	s := newStack(t)
	svc := newInvoiceService(s)
	c := s.client(t)
	inv, err := svc.CreateInvoice(s.ctx(), s.scope, CreateInvoiceRequest{
		ClientID: c.ID.String(),
		Items:    []InvoiceItemPayload{{Description: "Filing", Quantity: "1", UnitPrice: "1000"}},
	})
	require.NoError(t, err)

	stranger := compliance.Scope{UserID: uuid.New()}
	_, err = svc.GetInvoice(s.ctx(), stranger, inv.ID)
	assert.ErrorIs(t, err, compliance.ErrNotFound)
	list, total, err := svc.ListInvoices(s.ctx(), stranger, "", "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	require.NoError(t, svc.DeleteInvoice(s.ctx(), s.scope, inv.ID))
	_, err = svc.GetInvoice(s.ctx(), s.scope, inv.ID)
	assert.ErrorIs(t, err, compliance.ErrNotFound)
}
