package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Practitioner roles
const (
	RoleAdmin        = "admin"
	RolePractitioner = "practitioner"
	RoleStaff        = "staff"
)

// User is the practitioner who owns a book of clients
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role      string    `gorm:"type:varchar(50);not null" json:"role"`
	FirmName  string    `gorm:"type:varchar(255)" json:"firm_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}
