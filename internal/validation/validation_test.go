package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/example/storefront/internal/apperr"
)

type contact struct {
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone_number" validate:"omitempty,phone"`
	PostalCode string  `json:"postal_code" validate:"required,max=10,postal_code"`
	Kind       string  `json:"kind" validate:"oneof=home work"`
}

func ptr(s string) *string { return &s }

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		input contact
		want  apperr.FieldErrors
	}{
		{
			name:  "valid without phone",
			input: contact{Email: "a@x.com", PostalCode: "AB-12 3", Kind: "home"},
			want:  apperr.FieldErrors{},
		},
		{
			name:  "valid international phone",
			input: contact{Email: "a@x.com", Phone: ptr("+123456789012"), PostalCode: "10115", Kind: "work"},
			want:  apperr.FieldErrors{},
		},
		{
			name:  "short phone",
			input: contact{Email: "a@x.com", Phone: ptr("12345"), PostalCode: "10115", Kind: "work"},
			want:  apperr.FieldErrors{"phone_number": {"must be 7-15 digits and may start with +"}},
		},
		{
			name:  "everything wrong",
			input: contact{Email: "nope", PostalCode: "12#45", Kind: "moon"},
			want: apperr.FieldErrors{
				"email":       {"must be a valid email address"},
				"postal_code": {"must contain only letters, digits, spaces and hyphens"},
				"kind":        {"must be one of: home work"},
			},
		},
		{
			name:  "missing required",
			input: contact{Kind: "home"},
			want: apperr.FieldErrors{
				"email":       {"is required"},
				"postal_code": {"is required"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Struct(tt.input))
		})
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"0", true},
		{"19.99", true},
		{"99999999.99", true},
		{"-0.01", false},
		{"1.999", false},
		{"100000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			errs := apperr.FieldErrors{}
			Money(errs, "price", decimal.RequireFromString(tt.amount))
			assert.Equal(t, tt.valid, len(errs) == 0, errs)
		})
	}
}
