package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document owner types
const (
	DocOwnerClient       = "client"
	DocOwnerNotice       = "notice"
	DocOwnerRegistration = "registration"
	DocOwnerReturn       = "return"
)

// Document is attachment metadata. The file itself lives in external storage.
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	OwnerType string    `gorm:"type:varchar(20);not null;index:idx_documents_owner" json:"owner_type"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index:idx_documents_owner" json:"owner_id"`
	FileName  string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	MimeType  string    `gorm:"type:varchar(100)" json:"mime_type"`
	SizeBytes int64     `gorm:"default:0" json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	assignID(&d.ID)
	return nil
}
