package repository

import (
	"context"
	"time"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnListFilter struct {
	ClientID uuid.UUID
	Status   string
	Period   string
	Page     int
	Limit    int
}

type ReturnRepository interface {
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GSTReturn, error)
	List(ctx context.Context, filter ReturnListFilter) ([]model.GSTReturn, int64, error)
	// ListPastDue returns Draft returns whose due date is before now.
	ListPastDue(ctx context.Context, now time.Time, limit int) ([]model.GSTReturn, error)
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("owner_type = ? AND owner_id = ?", model.DocOwnerReturn, id).Delete(&model.Document{}).Error; err != nil {
		return err
	}
	// Payments outlive the return they settled. Unlinking is a change to
	// the payment, so its version moves and stale edits conflict.
	if err := db.Model(&model.GSTPayment{}).Where("return_id = ?", id).
		Updates(map[string]interface{}{"return_id": nil, "version": gorm.Expr("version + 1")}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.GSTReturn{}).Error
}

func (r *returnRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.GSTReturn, error) {
	var ret model.GSTReturn
	if err := GetDB(ctx, r.db).First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) List(ctx context.Context, filter ReturnListFilter) ([]model.GSTReturn, int64, error) {
	var returns []model.GSTReturn
	var total int64

	query := GetDB(ctx, r.db).Model(&model.GSTReturn{}).Where("client_id = ?", filter.ClientID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("due_date DESC").Offset(offset).Limit(filter.Limit).Find(&returns).Error; err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

func (r *returnRepository) ListPastDue(ctx context.Context, now time.Time, limit int) ([]model.GSTReturn, error) {
	var returns []model.GSTReturn
	err := GetDB(ctx, r.db).
		Where("status = ? AND due_date < ?", model.ReturnStatusDraft, now).
		Order("due_date ASC").Limit(limit).
		Find(&returns).Error
	return returns, err
}
