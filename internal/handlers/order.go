package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler serves orders, order items and payments of the caller.
type OrderHandler struct {
	orders   *services.OrderService
	payments *services.PaymentService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *services.OrderService, payments *services.PaymentService) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments}
}

// ListOrders returns the caller's orders, optionally filtered by status.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := services.OrderFilter{Status: c.Query("status")}

	orders, total, err := h.orders.List(c.UserContext(), middleware.CurrentIdentity(c), filter, pg)
	if err != nil {
		return err
	}
	return sendList(c, orders, pg, total)
}

// GetOrder returns a single order of the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Orders)
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, order)
}

// CreateOrder opens an empty order for the caller.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var in services.OrderInput
	if len(c.Body()) > 0 {
		if err := parseBody(c, &in); err != nil {
			return err
		}
	}

	order, err := h.orders.Create(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, order)
}

func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Orders)
	if err != nil {
		return err
	}

	var in services.OrderInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	order, err := h.orders.Update(c.UserContext(), middleware.CurrentIdentity(c), id, in, isPartial(c))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Orders)
	if err != nil {
		return err
	}

	if err := h.orders.Delete(c.UserContext(), middleware.CurrentIdentity(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrderHandler) ListItems(c *fiber.Ctx) error {
	orderID, err := queryID(c, "order")
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	items, total, err := h.orders.ListItems(c.UserContext(), middleware.CurrentIdentity(c), services.OrderItemFilter{OrderID: orderID}, pg)
	if err != nil {
		return err
	}
	return sendList(c, items, pg, total)
}

func (h *OrderHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c, policy.OrderItems)
	if err != nil {
		return err
	}

	item, err := h.orders.GetItem(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, item)
}

// CreateItem adds a line to an order; the order total follows.
func (h *OrderHandler) CreateItem(c *fiber.Ctx) error {
	var in services.OrderItemInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	item, err := h.orders.CreateItem(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, item)
}

func (h *OrderHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := parseID(c, policy.OrderItems)
	if err != nil {
		return err
	}

	var in services.OrderItemInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	item, err := h.orders.UpdateItem(c.UserContext(), middleware.CurrentIdentity(c), id, in, isPartial(c))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, item)
}

func (h *OrderHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := parseID(c, policy.OrderItems)
	if err != nil {
		return err
	}

	if err := h.orders.DeleteItem(c.UserContext(), middleware.CurrentIdentity(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrderHandler) ListPayments(c *fiber.Ctx) error {
	orderID, err := queryID(c, "order")
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	payments, total, err := h.payments.List(c.UserContext(), middleware.CurrentIdentity(c), services.PaymentFilter{OrderID: orderID}, pg)
	if err != nil {
		return err
	}
	return sendList(c, payments, pg, total)
}

func (h *OrderHandler) GetPayment(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Payments)
	if err != nil {
		return err
	}

	payment, err := h.payments.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, payment)
}

// CreatePayment records a pending payment.
func (h *OrderHandler) CreatePayment(c *fiber.Ctx) error {
	var in services.PaymentInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	payment, err := h.payments.Create(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, payment)
}

// RejectPaymentChange answers PUT, PATCH and DELETE on a payment.
func (h *OrderHandler) RejectPaymentChange(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Payments)
	if err != nil {
		return err
	}

	identity := middleware.CurrentIdentity(c)
	if c.Method() == fiber.MethodDelete {
		return h.payments.Delete(c.UserContext(), identity, id)
	}
	return h.payments.Update(c.UserContext(), identity, id, isPartial(c))
}
