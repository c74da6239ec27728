package models

import (
	"strings"

	"github.com/example/storefront/internal/validation"
)

// Role decides which catalog operations a user may perform.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is an account; the email is the login identifier.
type User struct {
	BaseModel
	Email        string  `gorm:"size:254;uniqueIndex;not null" json:"email" validate:"required,email,max=254"`
	PasswordHash string  `gorm:"not null" json:"-" validate:"-"`
	FirstName    string  `gorm:"size:150;not null" json:"first_name" validate:"required,max=150"`
	LastName     string  `gorm:"size:150;not null" json:"last_name" validate:"required,max=150"`
	Phone        *string `gorm:"size:20" json:"phone_number" validate:"omitempty,phone"`
	Role         Role    `gorm:"size:10;not null" json:"role" validate:"oneof=customer admin"`
}

// Validate checks every field rule of the user.
func (u *User) Validate() error {
	return validation.Struct(u).Err()
}

// NormalizeEmail trims the address and lowercases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
