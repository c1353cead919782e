package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreate           = "CREATE"
	ActionUpdate           = "UPDATE"
	ActionDelete           = "DELETE"
	ActionStatusTransition = "STATUS_TRANSITION"
	ActionCascadeUpdate    = "CASCADE_UPDATE"
)

// AuditLog tracks Who, What, and When for compliance state changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nil for the overdue sweep
	ClientID   *uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityKind string     `gorm:"type:varchar(20);not null" json:"entity_kind"`
	EntityID   uuid.UUID  `gorm:"type:uuid;index" json:"entity_id"`
	FromStatus string     `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   string     `gorm:"type:varchar(20)" json:"to_status"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON of the written fields
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
