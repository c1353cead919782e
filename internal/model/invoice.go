package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice status values
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusSent      = "SENT"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice is a professional-fee bill raised by the practitioner to a client
type Invoice struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	InvoiceNo string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	IssueDate time.Time       `gorm:"not null" json:"issue_date"`
	DueDate   *time.Time      `json:"due_date"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount"`
	Total     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total"`
	Status    string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Notes     string          `gorm:"type:text" json:"notes"`
	Items     []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// InvoiceItem is a single service line on an invoice
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"` // percent, e.g. 18
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`            // quantity * unit_price
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
