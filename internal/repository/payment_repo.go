package repository

import (
	"context"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GSTPayment, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.GSTPayment, int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.GSTPayment{}).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.GSTPayment, error) {
	var payment model.GSTPayment
	if err := GetDB(ctx, r.db).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByClient(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.GSTPayment, int64, error) {
	var payments []model.GSTPayment
	var total int64

	query := GetDB(ctx, r.db).Model(&model.GSTPayment{}).Where("client_id = ?", clientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
