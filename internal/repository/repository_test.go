package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gstdesk/internal/database"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedClient(t *testing.T, db *gorm.DB, userID uuid.UUID, name, status string) *model.Client {
	t.Helper()
	c := &model.Client{UserID: userID, Name: name, GSTStatus: status}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestRunInTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	tx := repository.NewTransactionManager(db)
	clients := repository.NewClientRepository(db)
	boom := errors.New("boom")

	err := tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		assert.True(t, repository.InTx(txCtx))
		require.NoError(t, clients.Create(txCtx, &model.Client{UserID: uuid.New(), Name: "Rolled Back"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&model.Client{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.False(t, repository.InTx(context.Background()))
}

func TestRunInTxJoinsOuter(t *testing.T) {
	db := newTestDB(t)
	tx := repository.NewTransactionManager(db)
	clients := repository.NewClientRepository(db)

	err := tx.RunInTx(context.Background(), func(outer context.Context) error {
		inner := tx.RunInTx(outer, func(innerCtx context.Context) error {
			return clients.Create(innerCtx, &model.Client{UserID: uuid.New(), Name: "Inner"})
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Client{}).Count(&count).Error)
	assert.Zero(t, count, "inner work commits with the outer transaction")
}

func TestUpdateVersioned(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewMutationRepository(db)
	client := seedClient(t, db, uuid.New(), "Acme", model.GSTStatusInactive)
	ctx := context.Background()

	require.NoError(t, store.UpdateVersioned(ctx, "clients", client.ID, 1, map[string]interface{}{"gst_status": model.GSTStatusActive}))

	state, err := store.CurrentState(ctx, "clients", "gst_status", client.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.RowState{Version: 2, Status: model.GSTStatusActive}, state)

	err = store.UpdateVersioned(ctx, "clients", client.ID, 1, map[string]interface{}{"gst_status": model.GSTStatusSuspended})
	assert.ErrorIs(t, err, repository.ErrStaleVersion)

	state, err = store.CurrentState(ctx, "clients", "gst_status", client.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GSTStatusActive, state.Status)
}

func TestCurrentStateMissingRow(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewMutationRepository(db)

	_, err := store.CurrentState(context.Background(), "gst_returns", "status", uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInsertWritesFieldsWithoutVersionBump(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewMutationRepository(db)
	client := seedClient(t, db, uuid.New(), "Acme", model.GSTStatusActive)
	paidAt := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	payment := &model.GSTPayment{ClientID: client.ID, Amount: decimal.NewFromInt(100), Status: model.PaymentStatusPaid}
	require.NoError(t, store.Insert(context.Background(), payment, map[string]interface{}{"paid_at": paidAt}))

	var got model.GSTPayment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	assert.Equal(t, int64(1), got.Version)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))
}

func TestClientListScopesToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewClientRepository(db)
	owner := uuid.New()
	seedClient(t, db, owner, "Acme Traders", model.GSTStatusActive)
	seedClient(t, db, owner, "Bharat Steel", model.GSTStatusInactive)
	seedClient(t, db, uuid.New(), "Acme Foreign", model.GSTStatusActive)
	ctx := context.Background()

	all, total, err := repo.List(ctx, repository.ClientListFilter{UserID: owner, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	found, total, err := repo.List(ctx, repository.ClientListFilter{UserID: owner, Search: "Acme", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "Acme Traders", found[0].Name)

	_, total, err = repo.List(ctx, repository.ClientListFilter{UserID: owner, GSTStatus: model.GSTStatusInactive, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestClientDeleteRemovesOwnedRecords(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewClientRepository(db)
	tx := repository.NewTransactionManager(db)
	client := seedClient(t, db, uuid.New(), "Acme", model.GSTStatusActive)
	other := seedClient(t, db, uuid.New(), "Other", model.GSTStatusActive)

	ret := &model.GSTReturn{ClientID: client.ID, ReturnType: model.ReturnTypeGSTR1, Period: "2024-06", Status: model.ReturnStatusDraft}
	require.NoError(t, db.Create(ret).Error)
	require.NoError(t, db.Create(&model.GSTPayment{ClientID: client.ID, ReturnID: &ret.ID, Amount: decimal.NewFromInt(10), Status: model.PaymentStatusDraft}).Error)
	require.NoError(t, db.Create(&model.GSTRegistration{ClientID: client.ID, Status: model.RegistrationStatusDraft}).Error)
	require.NoError(t, db.Create(&model.Notice{ClientID: client.ID, Subject: "DRC-01", Status: model.NoticeStatusReceived}).Error)
	require.NoError(t, db.Create(&model.Document{ClientID: client.ID, OwnerType: model.DocOwnerClient, OwnerID: client.ID, FileName: "pan.pdf", FileURL: "https://files/pan.pdf"}).Error)
	require.NoError(t, db.Create(&model.Invoice{ClientID: client.ID, InvoiceNo: "INV-1", IssueDate: time.Now(), Items: []model.InvoiceItem{{Description: "Filing", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500), Amount: decimal.NewFromInt(500)}}}).Error)
	require.NoError(t, db.Create(&model.GSTReturn{ClientID: other.ID, ReturnType: model.ReturnTypeGSTR1, Period: "2024-06", Status: model.ReturnStatusDraft}).Error)

	require.NoError(t, tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		return repo.Delete(txCtx, client.ID)
	}))

	for _, table := range []interface{}{&model.GSTReturn{}, &model.GSTPayment{}, &model.GSTRegistration{}, &model.Notice{}, &model.Document{}, &model.Invoice{}} {
		var count int64
		require.NoError(t, db.Model(table).Where("client_id = ?", client.ID).Count(&count).Error)
		assert.Zero(t, count, "%T left behind", table)
	}
	var items int64
	require.NoError(t, db.Model(&model.InvoiceItem{}).Count(&items).Error)
	assert.Zero(t, items)

	var remaining int64
	require.NoError(t, db.Model(&model.GSTReturn{}).Where("client_id = ?", other.ID).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestHasApprovedRegistration(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewClientRepository(db)
	client := seedClient(t, db, uuid.New(), "Acme", model.GSTStatusInactive)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.GSTRegistration{ClientID: client.ID, Status: model.RegistrationStatusSubmitted}).Error)
	ok, err := repo.HasApprovedRegistration(ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Create(&model.GSTRegistration{ClientID: client.ID, Status: model.RegistrationStatusApproved}).Error)
	ok, err = repo.HasApprovedRegistration(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReturnListPastDue(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewReturnRepository(db)
	client := seedClient(t, db, uuid.New(), "Acme", model.GSTStatusActive)
	now := time.Date(2024, 7, 21, 0, 0, 0, 0, time.UTC)

	late := &model.GSTReturn{ClientID: client.ID, ReturnType: model.ReturnTypeGSTR3B, Period: "2024-05", DueDate: now.AddDate(0, 0, -30), Status: model.ReturnStatusDraft}
	lateFiled := &model.GSTReturn{ClientID: client.ID, ReturnType: model.ReturnTypeGSTR1, Period: "2024-05", DueDate: now.AddDate(0, 0, -30), Status: model.ReturnStatusFiled}
	upcoming := &model.GSTReturn{ClientID: client.ID, ReturnType: model.ReturnTypeGSTR3B, Period: "2024-07", DueDate: now.AddDate(0, 1, 0), Status: model.ReturnStatusDraft}
	for _, r := range []*model.GSTReturn{late, lateFiled, upcoming} {
		require.NoError(t, db.Create(r).Error)
	}

	due, err := repo.ListPastDue(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, late.ID, due[0].ID)
}

func TestReturnDeleteUnlinksPayments(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewReturnRepository(db)
	client := seedClient(t, db, uuid.New(), "Acme", model.GSTStatusActive)
	ret := &model.GSTReturn{ClientID: client.ID, ReturnType: model.ReturnTypeGSTR3B, Period: "2024-06", Status: model.ReturnStatusFiled}
	require.NoError(t, db.Create(ret).Error)
	payment := &model.GSTPayment{ClientID: client.ID, ReturnID: &ret.ID, Amount: decimal.NewFromInt(10), Status: model.PaymentStatusPaid}
	require.NoError(t, db.Create(payment).Error)
	unrelated := &model.GSTPayment{ClientID: client.ID, Amount: decimal.NewFromInt(5), Status: model.PaymentStatusDraft}
	require.NoError(t, db.Create(unrelated).Error)

	require.NoError(t, repo.Delete(context.Background(), ret.ID))

	var got model.GSTPayment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	assert.Nil(t, got.ReturnID)
	assert.Equal(t, payment.Version+1, got.Version)
	require.NoError(t, db.First(&got, "id = ?", unrelated.ID).Error)
	assert.Equal(t, unrelated.Version, got.Version)
	_, err := repo.FindByID(context.Background(), ret.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReplaceForOwner(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewDocumentRepository(db)
	client := seedClient(t, db, uuid.New(), "Acme", model.GSTStatusActive)
	ownerID := uuid.New()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceForOwner(ctx, model.DocOwnerNotice, ownerID, []model.Document{
		{ClientID: client.ID, FileName: "a.pdf", FileURL: "https://files/a.pdf"},
		{ClientID: client.ID, FileName: "b.pdf", FileURL: "https://files/b.pdf"},
	}))
	docs, err := repo.ListByOwner(ctx, model.DocOwnerNotice, ownerID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	require.NoError(t, repo.ReplaceForOwner(ctx, model.DocOwnerNotice, ownerID, nil))
	docs, err = repo.ListByOwner(ctx, model.DocOwnerNotice, ownerID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAuditListByClientPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAuditRepository(db)
	clientID := uuid.New()
	entityID := uuid.New()
	ctx := context.Background()

	for i, action := range []string{model.ActionCreate, model.ActionStatusTransition, model.ActionCascadeUpdate} {
		require.NoError(t, repo.Log(ctx, &model.AuditLog{
			ClientID: &clientID, Action: action, EntityKind: "return", EntityID: entityID,
			Details: "{}", CreatedAt: time.Date(2024, 7, 1, i, 0, 0, 0, time.UTC),
		}))
	}

	page, total, err := repo.ListByClient(ctx, clientID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, model.ActionCascadeUpdate, page[0].Action, "newest first")

	trail, err := repo.ListByEntity(ctx, "return", entityID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, model.ActionCreate, trail[0].Action, "oldest first")
}

func TestStatistics(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewStatisticsRepository(db)
	owner := uuid.New()
	ctx := context.Background()
	today := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	acme := seedClient(t, db, owner, "Acme", model.GSTStatusActive)
	seedClient(t, db, owner, "Bharat", model.GSTStatusInactive)
	foreign := seedClient(t, db, uuid.New(), "Foreign", model.GSTStatusActive)

	require.NoError(t, db.Create(&model.GSTReturn{ClientID: acme.ID, ReturnType: model.ReturnTypeGSTR3B, Period: "2024-05", DueDate: today.AddDate(0, 0, -10), Status: model.ReturnStatusOverdue}).Error)
	require.NoError(t, db.Create(&model.GSTReturn{ClientID: acme.ID, ReturnType: model.ReturnTypeGSTR1, Period: "2024-06", DueDate: today.AddDate(0, 0, 10), Status: model.ReturnStatusDraft}).Error)
	require.NoError(t, db.Create(&model.GSTReturn{ClientID: acme.ID, ReturnType: model.ReturnTypeGSTR3B, Period: "2024-06", DueDate: today.AddDate(0, 0, 19), Status: model.ReturnStatusDraft}).Error)
	require.NoError(t, db.Create(&model.GSTReturn{ClientID: foreign.ID, ReturnType: model.ReturnTypeGSTR1, Period: "2024-06", DueDate: today.AddDate(0, 0, 5), Status: model.ReturnStatusDraft}).Error)

	require.NoError(t, db.Create(&model.GSTPayment{ClientID: acme.ID, Amount: decimal.RequireFromString("1200.50"), Status: model.PaymentStatusPaid}).Error)
	require.NoError(t, db.Create(&model.GSTPayment{ClientID: acme.ID, Amount: decimal.NewFromInt(800), Status: model.PaymentStatusPaid}).Error)
	require.NoError(t, db.Create(&model.GSTPayment{ClientID: acme.ID, Amount: decimal.NewFromInt(50), Status: model.PaymentStatusSent}).Error)
	require.NoError(t, db.Create(&model.GSTPayment{ClientID: foreign.ID, Amount: decimal.NewFromInt(999), Status: model.PaymentStatusPaid}).Error)

	clients, err := repo.CountClientsByStatus(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{model.GSTStatusActive: 1, model.GSTStatusInactive: 1}, clients)

	returns, err := repo.CountReturnsByStatus(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{model.ReturnStatusOverdue: 1, model.ReturnStatusDraft: 2}, returns)

	pending, err := repo.CountPendingPayments(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	paid, err := repo.SumPaid(ctx, owner)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2000.50").Equal(paid), "got %s", paid)

	upcoming, err := repo.UpcomingReturns(ctx, owner, today, 5)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "2024-07-11", upcoming[0].DueDate)
	assert.Equal(t, model.ReturnTypeGSTR1, upcoming[0].ReturnType)
	assert.Equal(t, "Acme", upcoming[0].ClientName)
}

func TestUserLookups(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{Username: "asha", Email: "asha@firm.in", Password: "hash", Role: model.RolePractitioner}
	require.NoError(t, repo.Create(ctx, user))

	byName, err := repo.GetByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := repo.GetByEmail(ctx, "Asha@Firm.in")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha", byID.Username)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.Error(t, repo.Create(ctx, &model.User{Username: "asha", Email: "other@firm.in", Password: "x", Role: model.RoleStaff}))
}
