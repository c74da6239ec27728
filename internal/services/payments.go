package services

import (
	"context"
	"errors"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

// PaymentService records payments. Stored payments are immutable.
type PaymentService struct {
	db     *gorm.DB
	logger *gecho.Logger
}

func NewPaymentService(db *gorm.DB, logger *gecho.Logger) *PaymentService {
	return &PaymentService{db: db, logger: logger}
}

// PaymentInput is the create payload. A payment_status sent by the client
// is not part of it and is ignored.
type PaymentInput struct {
	OrderID       *uuid.UUID       `json:"order_id"`
	Method        *string          `json:"payment_method"`
	Amount        *decimal.Decimal `json:"amount"`
	TransactionID *string          `json:"transaction_id"`
}

type PaymentFilter struct {
	OrderID *uuid.UUID
}

func (s *PaymentService) List(ctx context.Context, id *policy.Identity, filter PaymentFilter, pg utils.Pagination) ([]models.Payment, int64, error) {
	if err := policy.Authorize(id, policy.Payments, policy.List, false); err != nil {
		return nil, 0, err
	}

	db := s.db.WithContext(ctx)
	query := db.Model(&models.Payment{}).Where("order_id IN (?)", ownedOrders(db, id.UserID))
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	if err := query.Order("created_at DESC").Limit(pg.Limit).Offset(pg.Offset).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (s *PaymentService) Get(ctx context.Context, id *policy.Identity, paymentID uuid.UUID) (*models.Payment, error) {
	if err := policy.Authorize(id, policy.Payments, policy.Retrieve, true); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	return first[models.Payment](db, policy.Payments, "id = ? AND order_id IN (?)", paymentID, ownedOrders(db, id.UserID))
}

// Create records a pending payment against one of the caller's orders.
func (s *PaymentService) Create(ctx context.Context, id *policy.Identity, in PaymentInput) (*models.Payment, error) {
	if err := policy.Authorize(id, policy.Payments, policy.Create, false); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	errs := apperr.FieldErrors{}
	requireFields(errs, false, map[string]bool{
		"order_id":       in.OrderID != nil,
		"payment_method": in.Method != nil,
	})

	payment := models.Payment{Status: models.PaymentPending}
	if in.OrderID != nil {
		order, err := first[models.Order](db, policy.Orders, "id = ? AND user_id = ?", *in.OrderID, id.UserID)
		switch {
		case err == nil:
			payment.OrderID = order.ID
			payment.Amount = order.TotalAmount
		case errors.Is(err, apperr.ErrNotFound):
			errs.Add("order_id", "does not exist")
		default:
			return nil, err
		}
	}
	if in.Method != nil {
		payment.Method = models.PaymentMethod(*in.Method)
	}
	if in.Amount != nil {
		payment.Amount = *in.Amount
	}
	setOptional(&payment.TransactionID, in.TransactionID)
	if payment.TransactionID == nil {
		generated := uuid.NewString()
		payment.TransactionID = &generated
	}

	if verr, ok := apperr.AsValidation(payment.Validate()); ok {
		errs.Merge(verr.Fields)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	taken, err := exists(db, &models.Payment{}, "transaction_id = ?", *payment.TransactionID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.New(apperr.ErrConflict, "payment with this transaction id already exists")
	}

	if err := db.Create(&payment).Error; err != nil {
		return nil, conflictOr(err, "payment with this transaction id already exists")
	}
	s.logger.Info("Payment recorded",
		gecho.Field("payment_id", payment.ID),
		gecho.Field("order_id", payment.OrderID),
		gecho.Field("method", payment.Method),
	)
	return &payment, nil
}

// Update always fails: stored payments never change.
func (s *PaymentService) Update(_ context.Context, id *policy.Identity, _ uuid.UUID, partial bool) error {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}
	return policy.Authorize(id, policy.Payments, op, true)
}

func (s *PaymentService) Delete(_ context.Context, id *policy.Identity, _ uuid.UUID) error {
	return policy.Authorize(id, policy.Payments, policy.Delete, true)
}
