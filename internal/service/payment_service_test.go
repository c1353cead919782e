package service

import (
	"testing"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaidPaymentFilesReturn(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	ret := s.draftReturn(t, c.ID, "2024-07-20")

	p, err := s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{
		ClientID: c.ID.String(), ReturnID: str(ret.ID.String()), Amount: "4520.00",
		Status: model.PaymentStatusPaid, PaidDate: "2024-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "4520.00", p.Amount)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, "2024-06-30T00:00:00Z", *p.PaidAt)

	got, err := s.returns.GetReturn(s.ctx(), s.scope, ret.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusFiled, got.Status)
	assert.Nil(t, got.FiledAt)
}

func TestPaymentPaidDateRules(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	p, err := s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{ClientID: c.ID.String(), Amount: "100"})
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusDraft, p.Status)
	id := p.ID.String()

	_, err = s.pays.UpdatePayment(s.ctx(), s.scope, id, UpdatePaymentRequest{PaidDate: compliance.SetTo("2024-06-30")})
	assert.ErrorIs(t, err, compliance.ErrValidation, "a paid date needs PAID")

	_, err = s.pays.UpdatePayment(s.ctx(), s.scope, id, UpdatePaymentRequest{
		Status: compliance.SetTo(model.PaymentStatusSent), PaidDate: compliance.SetTo("2024-06-30"),
	})
	assert.ErrorIs(t, err, compliance.ErrValidation)

	p, err = s.pays.UpdatePayment(s.ctx(), s.scope, id, UpdatePaymentRequest{Status: compliance.SetTo(model.PaymentStatusPaid)})
	require.NoError(t, err)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, s.now.Format(time.RFC3339), *p.PaidAt)

	// Re-confirming PAID keeps the stamp unless a date is supplied.
	s.now = s.now.Add(48 * time.Hour)
	p, err = s.pays.UpdatePayment(s.ctx(), s.scope, id, UpdatePaymentRequest{Status: compliance.SetTo(model.PaymentStatusPaid)})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01T10:00:00Z", *p.PaidAt)

	p, err = s.pays.UpdatePayment(s.ctx(), s.scope, id, UpdatePaymentRequest{PaidDate: compliance.SetTo("2024-06-29")})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-29T00:00:00Z", *p.PaidAt)

	p, err = s.pays.UpdatePayment(s.ctx(), s.scope, id, UpdatePaymentRequest{Status: compliance.SetTo(model.PaymentStatusFailed)})
	require.NoError(t, err)
	assert.Nil(t, p.PaidAt)
}

func TestRelinkPaidPaymentFilesNewReturn(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	first := s.draftReturn(t, c.ID, "2024-07-20")
	p, err := s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{
		ClientID: c.ID.String(), ReturnID: str(first.ID.String()), Amount: "10", Status: model.PaymentStatusPaid,
	})
	require.NoError(t, err)

	second, err := s.returns.CreateReturn(s.ctx(), s.scope, CreateReturnRequest{
		ClientID: c.ID.String(), ReturnType: model.ReturnTypeGSTR1, Period: "2024-06", DueDate: "2024-07-11",
	})
	require.NoError(t, err)

	p, err = s.pays.UpdatePayment(s.ctx(), s.scope, p.ID.String(), UpdatePaymentRequest{ReturnID: compliance.SetTo(str(second.ID.String()))})
	require.NoError(t, err)
	require.NotNil(t, p.ReturnID)
	assert.Equal(t, second.ID, *p.ReturnID)

	got, err := s.returns.GetReturn(s.ctx(), s.scope, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusFiled, got.Status)

	p, err = s.pays.UpdatePayment(s.ctx(), s.scope, p.ID.String(), UpdatePaymentRequest{ReturnID: compliance.SetTo[*string](nil)})
	require.NoError(t, err)
	assert.Nil(t, p.ReturnID)
	assert.Equal(t, model.PaymentStatusPaid, p.Status)
}

func TestPaymentRejectsOtherClientsReturn(t *testing.T) {
	s := newStack(t)
	mine := s.client(t)
	other, err := s.clients.CreateClient(s.ctx(), s.scope, CreateClientRequest{Name: "Other"})
	require.NoError(t, err)
	foreignReturn := s.draftReturn(t, other.ID, "2024-07-20")

	_, err = s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{
		ClientID: mine.ID.String(), ReturnID: str(foreignReturn.ID.String()), Amount: "10",
	})
	var verr *compliance.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "return_id", verr.Field)

	_, err = s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{ClientID: mine.ID.String(), Amount: "-5"})
	assert.ErrorIs(t, err, compliance.ErrValidation)

	_, err = s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{ClientID: mine.ID.String(), Amount: "5", Status: "SETTLED"})
	assert.ErrorIs(t, err, compliance.ErrValidation)
}

func TestDeletingReturnInvalidatesPaymentVersion(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	ret := s.draftReturn(t, c.ID, "2024-07-20")
	p, err := s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{ClientID: c.ID.String(), ReturnID: str(ret.ID.String()), Amount: "100"})
	require.NoError(t, err)
	require.EqualValues(t, 1, p.Version)

	require.NoError(t, s.returns.DeleteReturn(s.ctx(), s.scope, ret.ID.String()))

	_, err = s.pays.UpdatePayment(s.ctx(), s.scope, p.ID.String(), UpdatePaymentRequest{
		Version: compliance.SetTo(p.Version),
		Status:  compliance.SetTo(model.PaymentStatusPaid),
	})
	assert.ErrorIs(t, err, compliance.ErrConflict)

	got, err := s.pays.GetPayment(s.ctx(), s.scope, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusDraft, got.Status)
	assert.Nil(t, got.ReturnID)
	assert.EqualValues(t, 2, got.Version)
}
