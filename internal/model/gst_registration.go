package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Registration status values
const (
	RegistrationStatusDraft     = "Draft"
	RegistrationStatusSubmitted = "Submitted"
	RegistrationStatusApproved  = "Approved"
	RegistrationStatusRejected  = "Rejected"
)

// Registration types
const (
	RegistrationTypeRegular     = "REGULAR"
	RegistrationTypeComposition = "COMPOSITION"
	RegistrationTypeCasual      = "CASUAL"
)

// GSTRegistration tracks a client's application for a GSTIN.
// SubmittedAt and ApprovedAt are written once, on first entry into the status.
type GSTRegistration struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	RegistrationType string     `gorm:"type:varchar(20);not null;default:'REGULAR'" json:"registration_type"`
	StateCode        string     `gorm:"type:varchar(2)" json:"state_code"`
	ARN              string     `gorm:"column:arn;type:varchar(20)" json:"arn"` // application reference number
	Status           string     `gorm:"type:varchar(20);not null;default:'Draft';index" json:"status"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	ApprovedAt       *time.Time `json:"approved_at"`
	Remarks          string     `gorm:"type:text" json:"remarks"`
	Version          int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (GSTRegistration) TableName() string {
	return "gst_registrations"
}

func (r *GSTRegistration) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}
