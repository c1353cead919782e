package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Return status values
const (
	ReturnStatusDraft     = "Draft"
	ReturnStatusFiled     = "Filed"
	ReturnStatusProcessed = "Processed"
	ReturnStatusOverdue   = "Overdue"
)

// Return forms
const (
	ReturnTypeGSTR1  = "GSTR1"
	ReturnTypeGSTR3B = "GSTR3B"
	ReturnTypeGSTR4  = "GSTR4"
	ReturnTypeGSTR9  = "GSTR9"
)

// GSTReturn is a periodic return a client must file
type GSTReturn struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	ReturnType   string          `gorm:"type:varchar(10);not null" json:"return_type"`
	Period       string          `gorm:"type:varchar(7);not null;index" json:"period"` // YYYY-MM
	DueDate      time.Time       `gorm:"not null;index" json:"due_date"`
	TaxLiability decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_liability"`
	ARN          string          `gorm:"column:arn;type:varchar(20)" json:"arn"`
	Status       string          `gorm:"type:varchar(20);not null;default:'Draft';index" json:"status"`
	FiledAt      *time.Time      `json:"filed_at"`
	ProcessedAt  *time.Time      `json:"processed_at"`
	Version      int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (GSTReturn) TableName() string {
	return "gst_returns"
}

func (r *GSTReturn) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}
