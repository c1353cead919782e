package service

import (
	"context"
	"testing"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/database"
	"gstdesk/internal/logger"
	"gstdesk/internal/metrics"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stack wires the services over one in-memory database.
type stack struct {
	db      *gorm.DB
	engine  *compliance.Engine
	clients ClientService
	regs    RegistrationService
	returns ReturnService
	pays    PaymentService
	notices NoticeService
	audit   AuditService
	repos   struct {
		client  repository.ClientRepository
		ret     repository.ReturnRepository
		payment repository.PaymentRepository
	}
	scope compliance.Scope
	now   time.Time
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db, err := database.NewSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s := &stack{db: db, scope: compliance.Scope{UserID: uuid.New()}}
	s.now = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	tx := repository.NewTransactionManager(db)
	clientRepo := repository.NewClientRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	s.repos.client, s.repos.ret, s.repos.payment = clientRepo, returnRepo, paymentRepo

	log := logger.Discard()
	m := metrics.New(prometheus.NewRegistry())
	applier := compliance.NewApplier(tx, repository.NewMutationRepository(db), docRepo, auditRepo,
		compliance.NewLocalLocker(), m, log)
	s.engine = compliance.NewEngine(applier, nil, m, log)
	s.engine.SetClock(func() time.Time { return s.now })

	s.clients = NewClientService(clientRepo, docRepo, tx, s.engine)
	s.regs = NewRegistrationService(regRepo, clientRepo, docRepo, tx, s.engine)
	s.returns = NewReturnService(returnRepo, clientRepo, docRepo, tx, s.engine)
	s.pays = NewPaymentService(paymentRepo, returnRepo, clientRepo, tx, s.engine)
	s.notices = NewNoticeService(noticeRepo, clientRepo, docRepo, tx, s.engine)
	s.audit = NewAuditService(auditRepo, clientRepo, regRepo, returnRepo, paymentRepo, noticeRepo)
	return s
}

func (s *stack) ctx() context.Context { return context.Background() }

func (s *stack) client(t *testing.T) ClientResponse {
	t.Helper()
	c, err := s.clients.CreateClient(s.ctx(), s.scope, CreateClientRequest{Name: "Acme Traders", PAN: "AAPFU0939F", GSTIN: "27AAPFU0939F1ZV"})
	require.NoError(t, err)
	return c
}

func (s *stack) draftReturn(t *testing.T, clientID uuid.UUID, due string) ReturnResponse {
	t.Helper()
	r, err := s.returns.CreateReturn(s.ctx(), s.scope, CreateReturnRequest{
		ClientID: clientID.String(), ReturnType: model.ReturnTypeGSTR3B, Period: "2024-06", DueDate: due,
	})
	require.NoError(t, err)
	return r
}

func str(s string) *string { return &s }
