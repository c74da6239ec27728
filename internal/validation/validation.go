// Package validation runs struct tag rules and maps failures to per-field messages.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/apperr"
)

var (
	phonePattern      = regexp.MustCompile(`^\+?\d{7,15}$`)
	postalCodePattern = regexp.MustCompile(`^[0-9A-Za-z\- ]+$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("postal_code", func(fl validator.FieldLevel) bool {
		return postalCodePattern.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) apperr.FieldErrors {
	out := apperr.FieldErrors{}

	err := validate.Struct(s)
	if err == nil {
		return out
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out.Add("non_field_errors", err.Error())
		return out
	}

	for _, e := range ve {
		out.Add(e.Field(), message(e))
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "phone":
		return "must be 7-15 digits and may start with +"
	case "postal_code":
		return "must contain only letters, digits, spaces and hyphens"
	default:
		return "is invalid"
	}
}

// Money checks a decimal(10,2) amount: non-negative, at most two decimal
// places and at most ten digits overall.
func Money(errs apperr.FieldErrors, field string, amount decimal.Decimal) {
	if amount.IsNegative() {
		errs.Add(field, "must be greater than or equal to 0")
	}
	if !amount.Equal(amount.Round(2)) {
		errs.Add(field, "must have no more than 2 decimal places")
	}
	if amount.Abs().GreaterThanOrEqual(maxMoney) {
		errs.Add(field, "must have no more than 10 digits in total")
	}
}

var maxMoney = decimal.New(1, 8)
