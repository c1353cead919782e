package repository

import (
	"context"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]model.Document, error)
	// ReplaceForOwner deletes the owner's current documents and inserts docs
	// in their place.
	ReplaceForOwner(ctx context.Context, ownerType string, ownerID uuid.UUID, docs []model.Document) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]model.Document, error) {
	var docs []model.Document
	err := GetDB(ctx, r.db).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) ReplaceForOwner(ctx context.Context, ownerType string, ownerID uuid.UUID, docs []model.Document) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).Delete(&model.Document{}).Error; err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	for i := range docs {
		docs[i].ID = uuid.Nil
		docs[i].OwnerType = ownerType
		docs[i].OwnerID = ownerID
	}
	return db.Create(&docs).Error
}
