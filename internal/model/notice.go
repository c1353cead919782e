package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notice status values
const (
	NoticeStatusReceived   = "RECEIVED"
	NoticeStatusInProgress = "IN_PROGRESS"
	NoticeStatusReplied    = "REPLIED"
)

// Notice is a communication from the tax department that needs a reply
type Notice struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	NoticeNumber string     `gorm:"type:varchar(50)" json:"notice_number"`
	Subject      string     `gorm:"type:varchar(255);not null" json:"subject"`
	Description  string     `gorm:"type:text" json:"description"`
	IssuedOn     *time.Time `json:"issued_on"`
	ReplyBy      *time.Time `json:"reply_by"`
	ReplyText    string     `gorm:"type:text" json:"reply_text"`
	Status       string     `gorm:"type:varchar(20);not null;default:'RECEIVED';index" json:"status"`
	RepliedAt    *time.Time `json:"replied_at"`
	Version      int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Notice) TableName() string {
	return "notices"
}

func (n *Notice) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	if n.Version == 0 {
		n.Version = 1
	}
	return nil
}
