package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GST status of a client business
const (
	GSTStatusActive    = "ACTIVE"
	GSTStatusInactive  = "INACTIVE"
	GSTStatusSuspended = "SUSPENDED"
	GSTStatusCancelled = "CANCELLED"
)

// Client is a business whose GST compliance the practitioner manages.
// GSTStatus becomes ACTIVE when one of its registrations is approved.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	PAN       string    `gorm:"column:pan;type:varchar(10)" json:"pan"`
	GSTIN     string    `gorm:"column:gstin;type:varchar(15);index" json:"gstin"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	GSTStatus string    `gorm:"column:gst_status;type:varchar(20);not null;default:'INACTIVE';index" json:"gst_status"`
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}
