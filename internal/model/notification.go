package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert kinds
const (
	AlertReturnOverdue        = "RETURN_OVERDUE"
	AlertNoticePending        = "NOTICE_PENDING"
	AlertNoticeReplied        = "NOTICE_REPLIED"
	AlertRegistrationApproved = "REGISTRATION_APPROVED"
	AlertRegistrationRejected = "REGISTRATION_REJECTED"
	AlertPaymentReceived      = "PAYMENT_RECEIVED"
)

// Notification is a user-facing alert shown in the practitioner's inbox
type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind       string     `gorm:"type:varchar(40);not null;index" json:"kind"`
	Title      string     `gorm:"type:varchar(255);not null" json:"title"`
	Payload    string     `gorm:"type:jsonb" json:"payload"` // Serialized JSON payload of the alert
	EntityKind string     `gorm:"type:varchar(20)" json:"entity_kind"`
	EntityID   *uuid.UUID `gorm:"type:uuid" json:"entity_id"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}
