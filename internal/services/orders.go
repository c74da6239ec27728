package services

import (
	"context"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
	"github.com/example/storefront/internal/validation"
)

// OrderService manages orders and their items. It is the only writer of
// Order.TotalAmount.
type OrderService struct {
	db     *gorm.DB
	logger *gecho.Logger
}

func NewOrderService(db *gorm.DB, logger *gecho.Logger) *OrderService {
	return &OrderService{db: db, logger: logger}
}

type OrderInput struct {
	Status *string `json:"status"`
}

type OrderFilter struct {
	Status string
}

// RecomputeOrderTotal sets the order total to the sum of its item
// subtotals. tx should hold the order row lock.
func RecomputeOrderTotal(tx *gorm.DB, orderID uuid.UUID) (decimal.Decimal, error) {
	var items []models.OrderItem
	if err := tx.Select("subtotal").Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	errs := apperr.FieldErrors{}
	validation.Money(errs, "total_amount", total)
	if err := errs.Err(); err != nil {
		return decimal.Zero, err
	}

	err := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("total_amount", total).Error
	return total, err
}

// recomputeOrders refreshes the totals of every order in ids.
func recomputeOrders(tx *gorm.DB, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := lockOrder(tx, id); err != nil {
			return err
		}
		if _, err := RecomputeOrderTotal(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) List(ctx context.Context, id *policy.Identity, filter OrderFilter, pg utils.Pagination) ([]models.Order, int64, error) {
	if err := policy.Authorize(id, policy.Orders, policy.List, false); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", id.UserID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Order("created_at").Limit(pg.Limit).Offset(pg.Offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *OrderService) Create(ctx context.Context, id *policy.Identity, in OrderInput) (*models.Order, error) {
	if err := policy.Authorize(id, policy.Orders, policy.Create, false); err != nil {
		return nil, err
	}

	order := models.Order{UserID: id.UserID, Status: models.OrderPending, TotalAmount: decimal.Zero}
	if in.Status != nil {
		order.Status = models.OrderStatus(*in.Status)
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	s.logger.Info("Order created", gecho.Field("order_id", order.ID), gecho.Field("user_id", order.UserID))
	return &order, nil
}

func (s *OrderService) Get(ctx context.Context, id *policy.Identity, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, s.db.WithContext(ctx), id, orderID, policy.Retrieve)
}

// Update changes the order status. The owner and the total are never
// writable.
func (s *OrderService) Update(ctx context.Context, id *policy.Identity, orderID uuid.UUID, in OrderInput, partial bool) (*models.Order, error) {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.load(ctx, forUpdate(tx), id, orderID, op)
		if err != nil {
			return err
		}

		errs := apperr.FieldErrors{}
		requireFields(errs, partial, map[string]bool{"status": in.Status != nil})
		if in.Status != nil {
			order.Status = models.OrderStatus(*in.Status)
		}
		if verr, ok := apperr.AsValidation(order.Validate()); ok {
			errs.Merge(verr.Fields)
		}
		if err := errs.Err(); err != nil {
			return err
		}

		return tx.Model(order).Update("status", order.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Delete removes the order with its items and payments.
func (s *OrderService) Delete(ctx context.Context, id *policy.Identity, orderID uuid.UUID) error {
	order, err := s.load(ctx, s.db.WithContext(ctx), id, orderID, policy.Delete)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, "id = ?", order.ID).Error
	})
}

func (s *OrderService) load(ctx context.Context, q *gorm.DB, id *policy.Identity, orderID uuid.UUID, op policy.Operation) (*models.Order, error) {
	if err := policy.Authorize(id, policy.Orders, op, true); err != nil {
		return nil, err
	}
	return first[models.Order](q.WithContext(ctx), policy.Orders, "id = ? AND user_id = ?", orderID, id.UserID)
}
