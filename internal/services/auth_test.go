package services_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/cache"
)

func TestObtainAndAuthenticate(t *testing.T) {
	svc := newServices(t, nil)
	alice := register(t, svc, "alice@example.com")

	pair, err := svc.Auth.Obtain(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotNil(t, pair.User)
	assert.Equal(t, alice.UserID, pair.User.ID)

	id, err := svc.Auth.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, id.UserID)

	_, err = svc.Auth.Authenticate(ctx, pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated, "refresh token must not work as access token")

	_, err = svc.Auth.Obtain(ctx, "alice@example.com", "wrong-pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Auth.Obtain(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Auth.Obtain(ctx, "", "")
	requireFieldError(t, err, "email")
}

func TestAuthenticateDeletedUser(t *testing.T) {
	svc := newServices(t, nil)
	register(t, svc, "alice@example.com")

	pair, err := svc.Auth.Obtain(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	id, err := svc.Auth.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	require.NoError(t, svc.Users.Delete(ctx, id, id.UserID))

	_, err = svc.Auth.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestRefreshRotation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := newServices(t, cache.NewTokenDenylist(client))
	register(t, svc, "alice@example.com")

	pair, err := svc.Auth.Obtain(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	rotated, err := svc.Auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	_, err = svc.Auth.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated, "a refresh token is single use")

	_, err = svc.Auth.Refresh(ctx, rotated.Refresh)
	assert.NoError(t, err)

	_, err = svc.Auth.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestRefreshWithoutDenylist(t *testing.T) {
	svc := newServices(t, nil)
	register(t, svc, "alice@example.com")

	pair, err := svc.Auth.Obtain(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)

	_, err = svc.Auth.Refresh(ctx, "")
	requireFieldError(t, err, "refresh")
}
