package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment status values
const (
	PaymentStatusDraft  = "DRAFT"
	PaymentStatusSent   = "SENT"
	PaymentStatusPaid   = "PAID"
	PaymentStatusFailed = "FAILED"
)

// GSTPayment is a tax payment (challan), optionally settling one return.
// PaidAt is only non-nil while Status is PAID.
type GSTPayment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	ReturnID      *uuid.UUID      `gorm:"type:uuid;index" json:"return_id"`
	ChallanNumber string          `gorm:"type:varchar(30)" json:"challan_number"` // CPIN
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Mode          string          `gorm:"type:varchar(20)" json:"mode"` // NETBANKING, NEFT, OTC ...
	Status        string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	PaidAt        *time.Time      `json:"paid_at"`
	Version       int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (GSTPayment) TableName() string {
	return "gst_payments"
}

func (p *GSTPayment) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}
