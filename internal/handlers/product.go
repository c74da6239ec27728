package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts supports exact filters, a search term and ordering.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	filter := services.ProductFilter{
		Category:      c.Query("category"),
		IsActive:      c.Query("is_active"),
		Price:         c.Query("price"),
		StockQuantity: c.Query("stock_quantity"),
		Search:        c.Query("search"),
		Ordering:      c.Query("ordering"),
	}

	pg := utils.ParsePagination(c)
	products, total, err := h.products.List(c.UserContext(), middleware.CurrentIdentity(c), filter, pg)
	if err != nil {
		return err
	}
	return sendList(c, products, pg, total)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Products)
	if err != nil {
		return err
	}

	product, err := h.products.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	product, err := h.products.Create(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Products)
	if err != nil {
		return err
	}

	var in services.ProductInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	product, err := h.products.Update(c.UserContext(), middleware.CurrentIdentity(c), id, in, isPartial(c))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, product)
}

// DeleteProduct removes the product with its images and order lines.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Products)
	if err != nil {
		return err
	}

	if err := h.products.Delete(c.UserContext(), middleware.CurrentIdentity(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterProductRoutes attaches product routes to router.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router) {
	router.Get("/", h.ListProducts)
	router.Get("/:id", h.GetProduct)
	router.Post("/", h.CreateProduct)
	router.Put("/:id", h.UpdateProduct)
	router.Patch("/:id", h.UpdateProduct)
	router.Delete("/:id", h.DeleteProduct)
}
