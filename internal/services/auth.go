package services

import (
	"context"
	"time"

	"github.com/MonkyMars/gecho"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

// RevocationStore consumes refresh token ids. Revoke reports false when
// the id had been consumed before.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
}

type TokenSettings struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *models.User `json:"user,omitempty"`
}

// AuthService issues and checks bearer tokens.
type AuthService struct {
	users       *UserService
	tokens      TokenSettings
	revocations RevocationStore
	logger      *gecho.Logger
}

func NewAuthService(users *UserService, tokens TokenSettings, revocations RevocationStore, logger *gecho.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, revocations: revocations, logger: logger}
}

// Obtain exchanges credentials for a token pair.
func (s *AuthService) Obtain(ctx context.Context, email, password string) (*TokenPair, error) {
	errs := apperr.FieldErrors{}
	if email == "" {
		errs.Add("email", requiredMsg)
	}
	if password == "" {
		errs.Add("password", requiredMsg)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	pair, err := s.issue(&policy.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, err
	}
	pair.User = user
	return pair, nil
}

// Refresh rotates a refresh token. The presented token is consumed, so
// replaying it fails once a revocation store is configured.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperr.Invalid("refresh", requiredMsg)
	}

	claims, err := utils.ParseToken(s.tokens.RefreshSecret, utils.RefreshToken, refreshToken)
	if err != nil {
		return nil, apperr.New(apperr.ErrUnauthenticated, "token is invalid or expired")
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, apperr.New(apperr.ErrUnauthenticated, "token is invalid or expired")
	}

	if s.revocations != nil {
		fresh, err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			s.logger.Error("Failed to revoke refresh token", gecho.Field("error", err))
			return nil, err
		}
		if !fresh {
			s.logger.Warn("Refresh token replayed", gecho.Field("user_id", userID))
			return nil, apperr.New(apperr.ErrUnauthenticated, "token is invalid or expired")
		}
	}

	id, err := s.users.Identity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(id)
}

// Authenticate resolves an access token to the caller identity. The role
// is read from storage so role changes apply to tokens already issued.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*policy.Identity, error) {
	claims, err := utils.ParseToken(s.tokens.AccessSecret, utils.AccessToken, accessToken)
	if err != nil {
		return nil, apperr.New(apperr.ErrUnauthenticated, "token is invalid or expired")
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, apperr.New(apperr.ErrUnauthenticated, "token is invalid or expired")
	}
	return s.users.Identity(ctx, userID)
}

func (s *AuthService) issue(id *policy.Identity) (*TokenPair, error) {
	access, _, err := utils.GenerateToken(s.tokens.AccessSecret, utils.AccessToken, id.UserID, string(id.Role), s.tokens.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, _, err := utils.GenerateToken(s.tokens.RefreshSecret, utils.RefreshToken, id.UserID, string(id.Role), s.tokens.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
