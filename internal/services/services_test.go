package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/database/dbtest"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

var (
	ctx = context.Background()
	pg  = utils.NewPagination(1, 100)

	testTokens = services.TokenSettings{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
)

func newServices(t *testing.T, revocations services.RevocationStore) *services.Services {
	t.Helper()
	return services.New(dbtest.Open(t), gecho.NewDefaultLogger(), testTokens, revocations)
}

func ptr[T any](v T) *T { return &v }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func register(t *testing.T, svc *services.Services, email string) *policy.Identity {
	t.Helper()
	user, err := svc.Users.Register(ctx, services.UserInput{
		Email:     ptr(email),
		Password:  ptr("s3cret-pass"),
		FirstName: ptr("Test"),
		LastName:  ptr("User"),
	})
	require.NoError(t, err)
	return &policy.Identity{UserID: user.ID, Role: user.Role}
}

func admin(t *testing.T, svc *services.Services) *policy.Identity {
	t.Helper()
	user, err := svc.Users.EnsureAdmin(ctx, "admin@shop.test", "admin-pass")
	require.NoError(t, err)
	return &policy.Identity{UserID: user.ID, Role: models.RoleAdmin}
}

func category(t *testing.T, svc *services.Services, adm *policy.Identity, name string) *models.Category {
	t.Helper()
	c, err := svc.Categories.Create(ctx, adm, services.CategoryInput{Name: ptr(name)})
	require.NoError(t, err)
	return c
}

func product(t *testing.T, svc *services.Services, adm *policy.Identity, cat *models.Category, name, price string) *models.Product {
	t.Helper()
	p, err := svc.Products.Create(ctx, adm, services.ProductInput{
		Name:          ptr(name),
		Price:         ptr(money(price)),
		StockQuantity: ptr(10),
		CategoryID:    ptr(cat.ID),
	})
	require.NoError(t, err)
	return p
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.Contains(t, ve.Fields, field)
}
