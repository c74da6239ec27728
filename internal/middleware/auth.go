package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/policy"
)

const identityContextKey = "currentIdentity"

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*policy.Identity, error)
}

// AuthMiddleware validates the bearer token and loads the caller identity into context.
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.New(apperr.ErrUnauthenticated, "authentication credentials were not provided")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return apperr.New(apperr.ErrUnauthenticated, "invalid authorization header")
		}

		identity, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(identityContextKey, identity)
		return c.Next()
	}
}

// CurrentIdentity returns the caller loaded by AuthMiddleware, or nil.
func CurrentIdentity(c *fiber.Ctx) *policy.Identity {
	if id, ok := c.Locals(identityContextKey).(*policy.Identity); ok {
		return id
	}
	return nil
}
