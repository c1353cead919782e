package repository

import (
	"context"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoticeRepository interface {
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Notice, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.Notice, int64, error)
}

type noticeRepository struct {
	db *gorm.DB
}

func NewNoticeRepository(db *gorm.DB) NoticeRepository {
	return &noticeRepository{db: db}
}

func (r *noticeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("owner_type = ? AND owner_id = ?", model.DocOwnerNotice, id).Delete(&model.Document{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Notice{}).Error
}

func (r *noticeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notice, error) {
	var notice model.Notice
	if err := GetDB(ctx, r.db).First(&notice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notice, nil
}

func (r *noticeRepository) ListByClient(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.Notice, int64, error) {
	var notices []model.Notice
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Notice{}).Where("client_id = ?", clientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notices).Error; err != nil {
		return nil, 0, err
	}
	return notices, total, nil
}
