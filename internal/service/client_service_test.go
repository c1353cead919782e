package service

import (
	"testing"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClientStartsInactive(t *testing.T) {
	s := newStack(t)
	c, err := s.clients.CreateClient(s.ctx(), s.scope, CreateClientRequest{
		Name: "Acme Traders",
		Documents: []DocumentPayload{
			{FileName: "pan.pdf", FileURL: "https://files.example/pan.pdf"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.GSTStatusInactive, c.GSTStatus)
	assert.Equal(t, int64(1), c.Version)
	require.Len(t, c.Documents, 1)
	assert.Equal(t, "pan.pdf", c.Documents[0].FileName)

	trail, err := s.audit.ListEntityTrail(s.ctx(), s.scope, "client", c.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, model.ActionCreate, trail[0].Action)
}

func TestCreateClientValidation(t *testing.T) {
	s := newStack(t)
	tests := []struct {
		name  string
		req   CreateClientRequest
		field string
	}{
		{"blank name", CreateClientRequest{Name: "  "}, "name"},
		{"bad pan", CreateClientRequest{Name: "Acme", PAN: "AAPF0939F"}, "pan"},
		{"bad gstin", CreateClientRequest{Name: "Acme", GSTIN: "27AAPFU0939F1V"}, "gstin"},
		{"gstin without pan", CreateClientRequest{Name: "Acme", PAN: "BBPFU0939F", GSTIN: "27AAPFU0939F1ZV"}, "gstin"},
		{"bad email", CreateClientRequest{Name: "Acme", Email: "not-an-email"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.clients.CreateClient(s.ctx(), s.scope, tt.req)
			var verr *compliance.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestManualActivationNeedsApprovedRegistration(t *testing.T) {
	s := newStack(t)
	c := s.client(t)

	_, err := s.clients.UpdateClient(s.ctx(), s.scope, c.ID.String(), UpdateClientRequest{GSTStatus: compliance.SetTo(model.GSTStatusActive)})
	var verr *compliance.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "gst_status", verr.Field)

	reg, err := s.regs.CreateRegistration(s.ctx(), s.scope, CreateRegistrationRequest{ClientID: c.ID.String(), Status: model.RegistrationStatusApproved})
	require.NoError(t, err)
	require.NotNil(t, reg.ApprovedAt)

	// Creating an approved registration already activated the client.
	got, err := s.clients.GetClient(s.ctx(), s.scope, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.GSTStatusActive, got.GSTStatus)

	_, err = s.clients.UpdateClient(s.ctx(), s.scope, c.ID.String(), UpdateClientRequest{GSTStatus: compliance.SetTo(model.GSTStatusSuspended)})
	require.NoError(t, err)
	got, err = s.clients.UpdateClient(s.ctx(), s.scope, c.ID.String(), UpdateClientRequest{GSTStatus: compliance.SetTo(model.GSTStatusActive)})
	require.NoError(t, err)
	assert.Equal(t, model.GSTStatusActive, got.GSTStatus)
}

func TestUpdateClientVersionCheck(t *testing.T) {
	s := newStack(t)
	c := s.client(t)

	got, err := s.clients.UpdateClient(s.ctx(), s.scope, c.ID.String(), UpdateClientRequest{
		Version: compliance.SetTo(int64(1)),
		Phone:   compliance.SetTo("+91 98200 00000"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "+91 98200 00000", got.Phone)

	_, err = s.clients.UpdateClient(s.ctx(), s.scope, c.ID.String(), UpdateClientRequest{
		Version: compliance.SetTo(int64(1)),
		Phone:   compliance.SetTo("stale"),
	})
	assert.ErrorIs(t, err, compliance.ErrConflict)
}

func TestForeignClientIsNotFound(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	stranger := compliance.Scope{UserID: uuid.New()}

	_, err := s.clients.GetClient(s.ctx(), stranger, c.ID.String())
	assert.ErrorIs(t, err, compliance.ErrNotFound)
	_, err = s.clients.UpdateClient(s.ctx(), stranger, c.ID.String(), UpdateClientRequest{Name: compliance.SetTo("Mine")})
	assert.ErrorIs(t, err, compliance.ErrNotFound)
	assert.ErrorIs(t, s.clients.DeleteClient(s.ctx(), stranger, c.ID.String()), compliance.ErrNotFound)

	list, total, err := s.clients.ListClients(s.ctx(), stranger, ClientFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestDeleteClient(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	s.draftReturn(t, c.ID, "2024-07-20")

	require.NoError(t, s.clients.DeleteClient(s.ctx(), s.scope, c.ID.String()))
	_, err := s.clients.GetClient(s.ctx(), s.scope, c.ID.String())
	assert.ErrorIs(t, err, compliance.ErrNotFound)

	_, err = s.clients.GetClient(s.ctx(), s.scope, "not-a-uuid")
	assert.ErrorIs(t, err, compliance.ErrValidation)
}
