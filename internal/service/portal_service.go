package service

import (
	"context"
	"strings"

	"gstdesk/internal/compliance"
	"gstdesk/internal/portal"
	"gstdesk/pkg/validation"
)

type PortalAuthRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type PortalRecordsQuery struct {
	Session            string
	RegistrationNumber string
	From               string
	To                 string
}

// PortalService fronts the portal gateway with input validation.
type PortalService interface {
	Authenticate(ctx context.Context, req PortalAuthRequest) (*portal.Session, error)
	FetchRecords(ctx context.Context, q PortalRecordsQuery) ([]portal.Record, error)
}

type portalService struct {
	client portal.Client
}

func NewPortalService(client portal.Client) PortalService {
	return &portalService{client: client}
}

func (s *portalService) Authenticate(ctx context.Context, req PortalAuthRequest) (*portal.Session, error) {
	return s.client.Authenticate(ctx, portal.Credentials{Username: req.Username, Password: req.Password})
}

func (s *portalService) FetchRecords(ctx context.Context, q PortalRecordsQuery) ([]portal.Record, error) {
	gstin := strings.ToUpper(strings.TrimSpace(q.RegistrationNumber))
	if !validation.IsGSTIN(gstin) {
		return nil, &compliance.ValidationError{Field: "registration_number", Value: q.RegistrationNumber, Reason: "must be a valid GSTIN"}
	}
	if !validation.IsPeriod(q.From) {
		return nil, &compliance.ValidationError{Field: "from", Value: q.From, Reason: "must be YYYY-MM"}
	}
	if !validation.IsPeriod(q.To) {
		return nil, &compliance.ValidationError{Field: "to", Value: q.To, Reason: "must be YYYY-MM"}
	}
	// YYYY-MM sorts lexically.
	if q.From > q.To {
		return nil, &compliance.ValidationError{Field: "from", Value: q.From, Reason: "must not be after to"}
	}
	if q.Session == "" {
		return nil, portal.ErrRejected
	}
	return s.client.FetchRecords(ctx, q.Session, gstin, portal.Range{From: q.From, To: q.To})
}
