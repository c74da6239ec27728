package services

import (
	"errors"
	"strings"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/policy"
)

// Services bundles every domain service behind the HTTP layer.
type Services struct {
	DB            *gorm.DB
	Auth          *AuthService
	Users         *UserService
	Categories    *CategoryService
	Products      *ProductService
	ProductImages *ProductImageService
	Orders        *OrderService
	Payments      *PaymentService
	Addresses     *AddressService
}

// New wires the services on top of db. revocations may be nil, in which
// case refresh tokens are not tracked after use.
func New(db *gorm.DB, logger *gecho.Logger, tokens TokenSettings, revocations RevocationStore) *Services {
	users := NewUserService(db, logger)
	orders := NewOrderService(db, logger)
	products := NewProductService(db, logger)

	return &Services{
		DB:            db,
		Auth:          NewAuthService(users, tokens, revocations, logger),
		Users:         users,
		Categories:    NewCategoryService(db, products),
		Products:      products,
		ProductImages: NewProductImageService(db),
		Orders:        orders,
		Payments:      NewPaymentService(db, logger),
		Addresses:     NewAddressService(db, logger),
	}
}

const requiredMsg = "is required"

func first[T any](q *gorm.DB, res policy.Resource, conds ...interface{}) (*T, error) {
	var out T
	if err := q.First(&out, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.ErrNotFound, "%s not found", res)
		}
		return nil, err
	}
	return &out, nil
}

// exists reports whether a row of model matches the conditions.
func exists(q *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := q.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ownedOrders selects the ids of orders owned by userID.
func ownedOrders(q *gorm.DB, userID uuid.UUID) *gorm.DB {
	return q.Table("orders").Select("id").Where("user_id = ?", userID)
}

func conflictOr(err error, msg string) error {
	if apperr.IsUniqueViolation(err) {
		return apperr.New(apperr.ErrConflict, msg)
	}
	return err
}

// missingOr maps a foreign key failure to a "does not exist" error on field.
// It happens when the referenced row is deleted between the check and the write.
func missingOr(err error, field string) error {
	if apperr.IsForeignKeyViolation(err) {
		return apperr.Invalid(field, "does not exist")
	}
	return err
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// setOptional stores a trimmed value or nil for blank input.
func setOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	trimmed := strings.TrimSpace(*src)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}

// requireFields records a required error for every field whose value is
// nil when a full representation is expected.
func requireFields(errs apperr.FieldErrors, partial bool, fields map[string]bool) {
	if partial {
		return
	}
	for field, present := range fields {
		if !present {
			errs.Add(field, requiredMsg)
		}
	}
}
