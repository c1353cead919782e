package repository

import (
	"context"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationRepository interface {
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GSTRegistration, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.GSTRegistration, int64, error)
}

type registrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("owner_type = ? AND owner_id = ?", model.DocOwnerRegistration, id).Delete(&model.Document{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.GSTRegistration{}).Error
}

func (r *registrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.GSTRegistration, error) {
	var reg model.GSTRegistration
	if err := GetDB(ctx, r.db).First(&reg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) ListByClient(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.GSTRegistration, int64, error) {
	var regs []model.GSTRegistration
	var total int64

	query := GetDB(ctx, r.db).Model(&model.GSTRegistration{}).Where("client_id = ?", clientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&regs).Error; err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}
