package repository

import (
	"context"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientListFilter struct {
	UserID    uuid.UUID
	Search    string
	GSTStatus string
	Page      int
	Limit     int
}

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, filter ClientListFilter) ([]model.Client, int64, error)
	HasApprovedRegistration(ctx context.Context, clientID uuid.UUID) (bool, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Create(client).Error
}

// Delete removes the client with every record it owns. Callers wrap it in a
// transaction.
func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("client_id = ?", id).Delete(&model.Document{}).Error; err != nil {
		return err
	}
	if err := db.Where("invoice_id IN (?)", db.Model(&model.Invoice{}).Select("id").Where("client_id = ?", id)).
		Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	for _, owned := range []interface{}{
		&model.Invoice{}, &model.GSTPayment{}, &model.GSTReturn{}, &model.Notice{}, &model.GSTRegistration{},
	} {
		if err := db.Where("client_id = ?", id).Delete(owned).Error; err != nil {
			return err
		}
	}
	return db.Where("id = ?", id).Delete(&model.Client{}).Error
}

func (r *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, filter ClientListFilter) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	scoped := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", filter.UserID)
		if filter.GSTStatus != "" {
			db = db.Where("gst_status = ?", filter.GSTStatus)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			db = db.Where("name LIKE ? OR gstin LIKE ? OR pan LIKE ? OR email LIKE ?", like, like, like, like)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Client{}).Scopes(scoped).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Model(&model.Client{}).Scopes(scoped).
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).
		Find(&clients).Error; err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

func (r *clientRepository) HasApprovedRegistration(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.GSTRegistration{}).
		Where("client_id = ? AND status = ?", clientID, model.RegistrationStatusApproved).
		Count(&count).Error
	return count > 0, err
}
