package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/services"
)

func orderTotal(t *testing.T, svc *services.Services, id *policy.Identity, orderID uuid.UUID) decimal.Decimal {
	t.Helper()
	order, err := svc.Orders.Get(ctx, id, orderID)
	require.NoError(t, err)
	return order.TotalAmount
}

func TestOrderTotalFollowsItems(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	cat := category(t, svc, adm, "Books")
	novel := product(t, svc, adm, cat, "Novel", "12.50")
	atlas := product(t, svc, adm, cat, "Atlas", "40.00")

	order, err := svc.Orders.Create(ctx, alice, services.OrderInput{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.True(t, order.TotalAmount.IsZero())

	first, err := svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &order.ID, ProductID: &novel.ID, Quantity: ptr(2)})
	require.NoError(t, err)
	assert.True(t, first.UnitPrice.Equal(money("12.50")), "unit price defaults to the product price")
	assert.True(t, first.Subtotal.Equal(money("25")))
	assert.True(t, orderTotal(t, svc, alice, order.ID).Equal(money("25")))

	second, err := svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{
		OrderID: &order.ID, ProductID: &atlas.ID, Quantity: ptr(1), UnitPrice: ptr(money("35.25")),
	})
	require.NoError(t, err)
	assert.True(t, orderTotal(t, svc, alice, order.ID).Equal(money("60.25")))

	_, err = svc.Orders.UpdateItem(ctx, alice, first.ID, services.OrderItemInput{Quantity: ptr(4)}, true)
	require.NoError(t, err)
	assert.True(t, orderTotal(t, svc, alice, order.ID).Equal(money("85.25")))

	require.NoError(t, svc.Orders.DeleteItem(ctx, alice, second.ID))
	assert.True(t, orderTotal(t, svc, alice, order.ID).Equal(money("50")))
}

func TestMovingItemRecomputesBothOrders(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	prod := product(t, svc, adm, category(t, svc, adm, "Books"), "Novel", "10.00")

	from, err := svc.Orders.Create(ctx, alice, services.OrderInput{})
	require.NoError(t, err)
	to, err := svc.Orders.Create(ctx, alice, services.OrderInput{})
	require.NoError(t, err)

	item, err := svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &from.ID, ProductID: &prod.ID, Quantity: ptr(3)})
	require.NoError(t, err)

	_, err = svc.Orders.UpdateItem(ctx, alice, item.ID, services.OrderItemInput{OrderID: &to.ID}, true)
	require.NoError(t, err)

	assert.True(t, orderTotal(t, svc, alice, from.ID).IsZero())
	assert.True(t, orderTotal(t, svc, alice, to.ID).Equal(money("30")))
}

func TestOrderItemValidation(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	bob := register(t, svc, "bob@example.com")
	prod := product(t, svc, adm, category(t, svc, adm, "Books"), "Novel", "10.00")

	order, err := svc.Orders.Create(ctx, alice, services.OrderInput{})
	require.NoError(t, err)

	_, err = svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &order.ID, ProductID: &prod.ID, Quantity: ptr(0)})
	requireFieldError(t, err, "quantity")

	_, err = svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{
		OrderID: &order.ID, ProductID: &prod.ID, Quantity: ptr(1), UnitPrice: ptr(money("-1")),
	})
	requireFieldError(t, err, "unit_price")

	_, err = svc.Orders.CreateItem(ctx, bob, services.OrderItemInput{OrderID: &order.ID, ProductID: &prod.ID, Quantity: ptr(1)})
	requireFieldError(t, err, "order_id")

	_, err = svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &order.ID, ProductID: ptr(uuid.New()), Quantity: ptr(1)})
	requireFieldError(t, err, "product_id")

	assert.True(t, orderTotal(t, svc, alice, order.ID).IsZero(), "rejected items never touch the total")
}

func TestOrderAmountLimits(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	prod := product(t, svc, adm, category(t, svc, adm, "Books"), "Folio", "60000000.00")

	order, err := svc.Orders.Create(ctx, alice, services.OrderInput{})
	require.NoError(t, err)

	t.Run("subtotal", func(t *testing.T) {
		_, err := svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{
			OrderID: &order.ID, ProductID: &prod.ID, Quantity: ptr(1000), UnitPrice: ptr(money("99999999.99")),
		})
		requireFieldError(t, err, "subtotal")
	})

	t.Run("total", func(t *testing.T) {
		_, err := svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &order.ID, ProductID: &prod.ID, Quantity: ptr(1)})
		require.NoError(t, err)

		_, err = svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &order.ID, ProductID: &prod.ID, Quantity: ptr(1)})
		requireFieldError(t, err, "total_amount")
	})

	assert.True(t, orderTotal(t, svc, alice, order.ID).Equal(money("60000000")))
	items, total, err := svc.Orders.ListItems(ctx, alice, services.OrderItemFilter{OrderID: &order.ID}, pg)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)
}

func TestOrderScoping(t *testing.T) {
	svc := newServices(t, nil)
	alice := register(t, svc, "alice@example.com")
	bob := register(t, svc, "bob@example.com")

	order, err := svc.Orders.Create(ctx, alice, services.OrderInput{Status: ptr("paid")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, alice.UserID, order.UserID)

	_, err = svc.Orders.Get(ctx, bob, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Orders.Delete(ctx, bob, order.ID), apperr.ErrNotFound)

	orders, total, err := svc.Orders.List(ctx, bob, services.OrderFilter{}, pg)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)

	_, total, err = svc.Orders.List(ctx, alice, services.OrderFilter{Status: "shipped"}, pg)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = svc.Orders.Create(ctx, alice, services.OrderInput{Status: ptr("lost")})
	requireFieldError(t, err, "status")

	updated, err := svc.Orders.Update(ctx, alice, order.ID, services.OrderInput{Status: ptr("shipped")}, false)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, updated.Status)

	_, err = svc.Orders.Update(ctx, alice, order.ID, services.OrderInput{}, false)
	requireFieldError(t, err, "status")
}

func TestDeletingProductRecomputesOrders(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	cat := category(t, svc, adm, "Books")
	novel := product(t, svc, adm, cat, "Novel", "10.00")
	atlas := product(t, svc, adm, cat, "Atlas", "5.00")

	order, err := svc.Orders.Create(ctx, alice, services.OrderInput{})
	require.NoError(t, err)
	for _, p := range []*models.Product{novel, atlas} {
		_, err := svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &order.ID, ProductID: &p.ID, Quantity: ptr(1)})
		require.NoError(t, err)
	}
	require.True(t, orderTotal(t, svc, alice, order.ID).Equal(money("15")))

	require.NoError(t, svc.Products.Delete(ctx, adm, novel.ID))
	assert.True(t, orderTotal(t, svc, alice, order.ID).Equal(money("5")))

	require.NoError(t, svc.Categories.Delete(ctx, adm, cat.ID))
	assert.True(t, orderTotal(t, svc, alice, order.ID).IsZero())

	items, _, err := svc.Orders.ListItems(ctx, alice, services.OrderItemFilter{OrderID: &order.ID}, pg)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteOrderRemovesItemsAndPayments(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	prod := product(t, svc, adm, category(t, svc, adm, "Books"), "Novel", "10.00")

	order, err := svc.Orders.Create(ctx, alice, services.OrderInput{})
	require.NoError(t, err)
	item, err := svc.Orders.CreateItem(ctx, alice, services.OrderItemInput{OrderID: &order.ID, ProductID: &prod.ID, Quantity: ptr(1)})
	require.NoError(t, err)
	payment, err := svc.Payments.Create(ctx, alice, services.PaymentInput{OrderID: &order.ID, Method: ptr("credit_card")})
	require.NoError(t, err)

	require.NoError(t, svc.Orders.Delete(ctx, alice, order.ID))

	_, err = svc.Orders.GetItem(ctx, alice, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Payments.Get(ctx, alice, payment.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
