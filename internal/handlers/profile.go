package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProfileHandler serves user accounts and their addresses.
type ProfileHandler struct {
	users     *services.UserService
	addresses *services.AddressService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(users *services.UserService, addresses *services.AddressService) *ProfileHandler {
	return &ProfileHandler{users: users, addresses: addresses}
}

// Register creates a customer account. It needs no token.
func (h *ProfileHandler) Register(c *fiber.Ctx) error {
	var in services.UserInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, user)
}

func (h *ProfileHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	users, total, err := h.users.List(c.UserContext(), middleware.CurrentIdentity(c), pg)
	if err != nil {
		return err
	}
	return sendList(c, users, pg, total)
}

func (h *ProfileHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Users)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, user)
}

// UpdateUser serves both PUT and PATCH.
func (h *ProfileHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Users)
	if err != nil {
		return err
	}

	var in services.UserInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), middleware.CurrentIdentity(c), id, in, isPartial(c))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, user)
}

func (h *ProfileHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Users)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.UserContext(), middleware.CurrentIdentity(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	addresses, total, err := h.addresses.List(c.UserContext(), middleware.CurrentIdentity(c), pg)
	if err != nil {
		return err
	}
	return sendList(c, addresses, pg, total)
}

func (h *ProfileHandler) GetAddress(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Addresses)
	if err != nil {
		return err
	}

	address, err := h.addresses.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, address)
}

// CreateAddress stores an address for the caller; a user_id in the body is ignored.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	var in services.AddressInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	address, err := h.addresses.Create(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, address)
}

func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Addresses)
	if err != nil {
		return err
	}

	var in services.AddressInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	address, err := h.addresses.Update(c.UserContext(), middleware.CurrentIdentity(c), id, in, isPartial(c))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, address)
}

func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	id, err := parseID(c, policy.Addresses)
	if err != nil {
		return err
	}

	if err := h.addresses.Delete(c.UserContext(), middleware.CurrentIdentity(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
