package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/portal"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationInbox(t *testing.T) {
	s := newStack(t)
	repo := repository.NewNotificationRepository(s.db)
	svc := NewNotificationService(repo)

	mine := &model.Notification{UserID: s.scope.UserID, Kind: model.AlertReturnOverdue, Title: "Return is overdue", Payload: `{"status":"Overdue"}`}
	require.NoError(t, repo.Create(s.ctx(), mine))
	require.NoError(t, repo.Create(s.ctx(), &model.Notification{UserID: s.scope.UserID, Kind: model.AlertNoticePending, Title: "New notice received", Payload: "{}"}))
	foreign := &model.Notification{UserID: uuid.New(), Kind: model.AlertNoticePending, Title: "Not yours", Payload: "{}"}
	require.NoError(t, repo.Create(s.ctx(), foreign))

	unread, err := svc.CountUnread(s.ctx(), s.scope)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	require.NoError(t, svc.MarkRead(s.ctx(), s.scope, mine.ID.String()))
	assert.ErrorIs(t, svc.MarkRead(s.ctx(), s.scope, foreign.ID.String()), compliance.ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(s.ctx(), s.scope, "nope"), compliance.ErrValidation)

	list, total, err := svc.ListNotifications(s.ctx(), s.scope, true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, model.AlertNoticePending, list[0].Kind)

	all, _, err := svc.ListNotifications(s.ctx(), s.scope, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, n := range all {
		if n.ID == mine.ID.String() {
			assert.NotNil(t, n.ReadAt)
			assert.JSONEq(t, `{"status":"Overdue"}`, string(n.Payload))
		}
	}

	n, err := svc.MarkAllRead(s.ctx(), s.scope)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	unread, err = svc.CountUnread(s.ctx(), s.scope)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDashboard(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	late := s.draftReturn(t, c.ID, "2024-06-20")
	s.draftReturn(t, c.ID, "2024-07-20")
	_, err := s.returns.MarkOverdue(s.ctx(), late.ID, s.now)
	require.NoError(t, err)
	_, err = s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{ClientID: c.ID.String(), Amount: "2500.50", Status: model.PaymentStatusPaid})
	require.NoError(t, err)
	_, err = s.pays.CreatePayment(s.ctx(), s.scope, CreatePaymentRequest{ClientID: c.ID.String(), Amount: "100"})
	require.NoError(t, err)
	_, err = s.notices.CreateNotice(s.ctx(), s.scope, CreateNoticeRequest{ClientID: c.ID.String(), Subject: "DRC-01"})
	require.NoError(t, err)

	svc := NewAnalyticsService(repository.NewStatisticsRepository(s.db), repository.NewNotificationRepository(s.db)).(*analyticsService)
	svc.now = func() time.Time { return s.now }

	stats, err := svc.GetDashboard(s.ctx(), s.scope)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalClients)
	assert.EqualValues(t, 1, stats.OverdueReturns)
	assert.EqualValues(t, 1, stats.PendingNotices)
	assert.EqualValues(t, 1, stats.PendingPayments)
	assert.Equal(t, "2500.50", stats.TotalPaid.StringFixed(2))
	require.Len(t, stats.UpcomingReturns, 1)
	assert.Equal(t, "2024-07-20", stats.UpcomingReturns[0].DueDate)

	empty, err := svc.GetDashboard(s.ctx(), compliance.Scope{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalClients)
	assert.NotNil(t, empty.UpcomingReturns)
}

type fakePortal struct {
	session string
	gstin   string
	rng     portal.Range
	err     error
}

func (f *fakePortal) Authenticate(_ context.Context, creds portal.Credentials) (*portal.Session, error) {
	if creds.Password != "right" {
		return nil, portal.ErrRejected
	}
	return &portal.Session{Token: "sess-1"}, nil
}

func (f *fakePortal) FetchRecords(_ context.Context, session, gstin string, rng portal.Range) ([]portal.Record, error) {
	f.session, f.gstin, f.rng = session, gstin, rng
	return []portal.Record{{ReturnType: model.ReturnTypeGSTR3B, Period: "2024-05", Status: "Filed"}}, f.err
}

func TestPortalService(t *testing.T) {
	fake := &fakePortal{}
	svc := NewPortalService(fake)
	ctx := context.Background()

	sess, err := svc.Authenticate(ctx, PortalAuthRequest{Username: "acme", Password: "right"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.Token)
	_, err = svc.Authenticate(ctx, PortalAuthRequest{Username: "acme", Password: "wrong"})
	assert.ErrorIs(t, err, portal.ErrRejected)

	records, err := svc.FetchRecords(ctx, PortalRecordsQuery{Session: "sess-1", RegistrationNumber: " 27aapfu0939f1zv", From: "2024-04", To: "2024-06"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "27AAPFU0939F1ZV", fake.gstin)
	assert.Equal(t, portal.Range{From: "2024-04", To: "2024-06"}, fake.rng)

	bad := []PortalRecordsQuery{
		{Session: "s", RegistrationNumber: "27AAPFU0939F1V", From: "2024-04", To: "2024-06"},
		{Session: "s", RegistrationNumber: "27AAPFU0939F1ZV", From: "2024-4", To: "2024-06"},
		{Session: "s", RegistrationNumber: "27AAPFU0939F1ZV", From: "2024-07", To: "2024-06"},
	}
	for _, q := range bad {
		_, err := svc.FetchRecords(ctx, q)
		assert.ErrorIs(t, err, compliance.ErrValidation, "%+v", q)
	}

	_, err = svc.FetchRecords(ctx, PortalRecordsQuery{RegistrationNumber: "27AAPFU0939F1ZV", From: "2024-04", To: "2024-06"})
	assert.ErrorIs(t, err, portal.ErrRejected)

	fake.err = errors.Join(portal.ErrUnavailable, errors.New("502"))
	_, err = svc.FetchRecords(ctx, PortalRecordsQuery{Session: "s", RegistrationNumber: "27AAPFU0939F1ZV", From: "2024-04", To: "2024-06"})
	assert.ErrorIs(t, err, portal.ErrUnavailable)
}
