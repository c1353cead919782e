package repository

import (
	"context"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	ListByClient(ctx context.Context, clientID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error)
	ListByEntity(ctx context.Context, entityKind string, entityID uuid.UUID) ([]model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) ListByClient(ctx context.Context, clientID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	query := GetDB(ctx, r.db).Model(&model.AuditLog{}).Where("client_id = ?", clientID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityKind string, entityID uuid.UUID) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := GetDB(ctx, r.db).
		Where("entity_kind = ? AND entity_id = ?", entityKind, entityID).
		Order("created_at asc").
		Find(&logs).Error
	return logs, err
}
