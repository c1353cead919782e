package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleVersion is returned when a versioned write matched no row because
// another writer bumped the version first.
var ErrStaleVersion = errors.New("stale version")

// RowState is the concurrency-relevant part of a stored row.
type RowState struct {
	Version int64
	Status  string
}

// MutationRepository performs versioned column writes against any
// compliance-tracked table.
type MutationRepository interface {
	// Insert creates record and then writes fields onto it without a
	// version bump.
	Insert(ctx context.Context, record interface{}, fields map[string]interface{}) error
	CurrentState(ctx context.Context, table, statusColumn string, id uuid.UUID) (RowState, error)
	UpdateVersioned(ctx context.Context, table string, id uuid.UUID, version int64, fields map[string]interface{}) error
}

type mutationRepository struct {
	db *gorm.DB
}

func NewMutationRepository(db *gorm.DB) MutationRepository {
	return &mutationRepository{db: db}
}

func (r *mutationRepository) Insert(ctx context.Context, record interface{}, fields map[string]interface{}) error {
	db := GetDB(ctx, r.db)
	if err := db.Create(record).Error; err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	return db.Model(record).Updates(fields).Error
}

func (r *mutationRepository) CurrentState(ctx context.Context, table, statusColumn string, id uuid.UUID) (RowState, error) {
	var state RowState
	res := GetDB(ctx, r.db).Table(table).
		Select("version, "+statusColumn+" AS status").
		Where("id = ?", id).Limit(1).
		Scan(&state)
	if res.Error != nil {
		return RowState{}, res.Error
	}
	if res.RowsAffected == 0 {
		return RowState{}, gorm.ErrRecordNotFound
	}
	return state, nil
}

// UpdateVersioned writes fields only if the row still has the given version,
// and bumps the version in the same statement.
func (r *mutationRepository) UpdateVersioned(ctx context.Context, table string, id uuid.UUID, version int64, fields map[string]interface{}) error {
	values := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")
	values["updated_at"] = time.Now().UTC()

	res := GetDB(ctx, r.db).Table(table).Where("id = ? AND version = ?", id, version).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}
