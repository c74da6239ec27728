package handlers

import (
	"errors"

	"github.com/MonkyMars/gecho"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

// ErrorHandler renders every error returned by a handler as a JSON envelope.
func ErrorHandler(logger *gecho.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if verr, ok := apperr.AsValidation(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "validation failed",
				"errors":  verr.Fields,
			})
		}

		status := statusOf(err)
		message := apperr.Message(err)
		if status == fiber.StatusInternalServerError {
			logger.Error("Request failed",
				gecho.Field("error", err),
				gecho.Field("method", c.Method()),
				gecho.Field("path", c.Path()),
			)
			message = "internal server error"
		}

		return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
	}
}

func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrPermissionDenied):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrMethodNotAllowed):
		return fiber.StatusMethodNotAllowed
	default:
		return fiber.StatusInternalServerError
	}
}

// parseID reads the :id param. A malformed id cannot name any record, so
// it is reported as not found.
func parseID(c *fiber.Ctx, res policy.Resource) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.Newf(apperr.ErrNotFound, "%s not found", res)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

// queryID parses an optional uuid query filter.
func queryID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Invalid(key, "must be a valid UUID")
	}
	return &id, nil
}

func isPartial(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPatch
}

func sendData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func sendList(c *fiber.Ctx, data interface{}, pg utils.Pagination, total int64) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       data,
		"pagination": pg.Meta(total),
	})
}
