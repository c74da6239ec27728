package models

import (
	"github.com/google/uuid"

	"github.com/example/storefront/internal/validation"
)

// Address belongs to a user. At most one address per user is the default,
// backed by the idx_addresses_single_default partial unique index.
type Address struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	Street     string    `gorm:"size:100;not null" json:"street" validate:"required,max=100"`
	City       string    `gorm:"size:100;not null" json:"city" validate:"required,max=100"`
	State      string    `gorm:"size:100;not null" json:"state" validate:"required,max=100"`
	PostalCode string    `gorm:"size:10;not null" json:"postal_code" validate:"required,max=10,postal_code"`
	Country    string    `gorm:"size:100;not null" json:"country" validate:"required,max=100"`
	IsDefault  bool      `gorm:"not null" json:"is_default"`
}

func (a *Address) Validate() error {
	return validation.Struct(a).Err()
}
