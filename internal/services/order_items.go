package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

type OrderItemInput struct {
	OrderID   *uuid.UUID       `json:"order_id"`
	ProductID *uuid.UUID       `json:"product_id"`
	Quantity  *int             `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type OrderItemFilter struct {
	OrderID *uuid.UUID
}

func (s *OrderService) ListItems(ctx context.Context, id *policy.Identity, filter OrderItemFilter, pg utils.Pagination) ([]models.OrderItem, int64, error) {
	if err := policy.Authorize(id, policy.OrderItems, policy.List, false); err != nil {
		return nil, 0, err
	}

	db := s.db.WithContext(ctx)
	query := db.Model(&models.OrderItem{}).Where("order_id IN (?)", ownedOrders(db, id.UserID))
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.OrderItem
	if err := query.Order("created_at").Limit(pg.Limit).Offset(pg.Offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *OrderService) GetItem(ctx context.Context, id *policy.Identity, itemID uuid.UUID) (*models.OrderItem, error) {
	return s.loadItem(s.db.WithContext(ctx), id, itemID, policy.Retrieve)
}

// CreateItem adds a line to one of the caller's orders and refreshes the
// order total in the same transaction.
func (s *OrderService) CreateItem(ctx context.Context, id *policy.Identity, in OrderItemInput) (*models.OrderItem, error) {
	if err := policy.Authorize(id, policy.OrderItems, policy.Create, false); err != nil {
		return nil, err
	}

	item := models.OrderItem{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.applyItem(tx, id, &item, in, false); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return missingOr(err, "product_id")
		}
		_, err := RecomputeOrderTotal(tx, item.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem rewrites a line. When the line moves to another order both
// totals are refreshed.
func (s *OrderService) UpdateItem(ctx context.Context, id *policy.Identity, itemID uuid.UUID, in OrderItemInput, partial bool) (*models.OrderItem, error) {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}

	var item *models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.loadItem(tx, id, itemID, op)
		if err != nil {
			return err
		}
		previousOrder := item.OrderID

		if err := s.applyItem(tx, id, item, in, partial); err != nil {
			return err
		}
		if err := tx.Save(item).Error; err != nil {
			return missingOr(err, "product_id")
		}
		return recomputeOrders(tx, []uuid.UUID{previousOrder, item.OrderID})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *OrderService) DeleteItem(ctx context.Context, id *policy.Identity, itemID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.loadItem(tx, id, itemID, policy.Delete)
		if err != nil {
			return err
		}
		if err := lockOrder(tx, item.OrderID); err != nil {
			return err
		}
		if err := tx.Delete(&models.OrderItem{}, "id = ?", item.ID).Error; err != nil {
			return err
		}
		_, err = RecomputeOrderTotal(tx, item.OrderID)
		return err
	})
}

// applyItem validates in against the caller's scope, copies it onto item
// and locks the target order row.
func (s *OrderService) applyItem(tx *gorm.DB, id *policy.Identity, item *models.OrderItem, in OrderItemInput, partial bool) error {
	errs := apperr.FieldErrors{}
	requireFields(errs, partial, map[string]bool{
		"order_id":   in.OrderID != nil,
		"product_id": in.ProductID != nil,
		"quantity":   in.Quantity != nil,
	})

	if in.OrderID != nil {
		owned, err := exists(tx, &models.Order{}, "id = ? AND user_id = ?", *in.OrderID, id.UserID)
		if err != nil {
			return err
		}
		if owned {
			item.OrderID = *in.OrderID
		} else {
			errs.Add("order_id", "does not exist")
		}
	}

	var product *models.Product
	if in.ProductID != nil {
		p, err := first[models.Product](tx, policy.Products, "id = ?", *in.ProductID)
		switch {
		case err == nil:
			product = p
			item.ProductID = p.ID
		case errors.Is(err, apperr.ErrNotFound):
			errs.Add("product_id", "does not exist")
		default:
			return err
		}
	}

	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	switch {
	case in.UnitPrice != nil:
		item.UnitPrice = *in.UnitPrice
	case product != nil:
		item.UnitPrice = product.Price
	}
	item.ComputeSubtotal()

	if verr, ok := apperr.AsValidation(item.Validate()); ok {
		errs.Merge(verr.Fields)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	return lockOrder(tx, item.OrderID)
}

func (s *OrderService) loadItem(q *gorm.DB, id *policy.Identity, itemID uuid.UUID, op policy.Operation) (*models.OrderItem, error) {
	if err := policy.Authorize(id, policy.OrderItems, op, true); err != nil {
		return nil, err
	}
	return first[models.OrderItem](q, policy.OrderItems, "id = ? AND order_id IN (?)", itemID, ownedOrders(q, id.UserID))
}

func lockOrder(tx *gorm.DB, orderID uuid.UUID) error {
	return forUpdate(tx).Select("id").First(&models.Order{}, "id = ?", orderID).Error
}
