package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// CatalogHandler manages categories and product images.
type CatalogHandler struct {
	categories *services.CategoryService
	images     *services.ProductImageService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(categories *services.CategoryService, images *services.ProductImageService) *CatalogHandler {
	return &CatalogHandler{categories: categories, images: images}
}

// ListCategories returns paginated categories ordered by name.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	categories, total, err := h.categories.List(c.UserContext(), middleware.CurrentIdentity(c), pg)
	if err != nil {
		return err
	}
	return sendList(c, categories, pg, total)
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Categories)
	if err != nil {
		return err
	}

	category, err := h.categories.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, category)
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	category, err := h.categories.Create(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, category)
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Categories)
	if err != nil {
		return err
	}

	var in services.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	category, err := h.categories.Update(c.UserContext(), middleware.CurrentIdentity(c), id, in, isPartial(c))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, category)
}

// DeleteCategory removes a category and its products.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Categories)
	if err != nil {
		return err
	}

	if err := h.categories.Delete(c.UserContext(), middleware.CurrentIdentity(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) ListImages(c *fiber.Ctx) error {
	productID, err := queryID(c, "product")
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	images, total, err := h.images.List(c.UserContext(), middleware.CurrentIdentity(c), productID, pg)
	if err != nil {
		return err
	}
	return sendList(c, images, pg, total)
}

func (h *CatalogHandler) GetImage(c *fiber.Ctx) error {
	id, err := parseID(c, policy.ProductImages)
	if err != nil {
		return err
	}

	image, err := h.images.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, image)
}

func (h *CatalogHandler) CreateImage(c *fiber.Ctx) error {
	var in services.ProductImageInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	image, err := h.images.Create(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, image)
}

func (h *CatalogHandler) UpdateImage(c *fiber.Ctx) error {
	id, err := parseID(c, policy.ProductImages)
	if err != nil {
		return err
	}

	var in services.ProductImageInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	image, err := h.images.Update(c.UserContext(), middleware.CurrentIdentity(c), id, in, isPartial(c))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, image)
}

func (h *CatalogHandler) DeleteImage(c *fiber.Ctx) error {
	id, err := parseID(c, policy.ProductImages)
	if err != nil {
		return err
	}

	if err := h.images.Delete(c.UserContext(), middleware.CurrentIdentity(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
