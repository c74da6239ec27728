package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// ObtainToken exchanges credentials for an access and refresh token.
func (h *AuthHandler) ObtainToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Obtain(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, pair)
}

// RefreshToken rotates a refresh token.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, pair)
}
