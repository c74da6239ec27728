package services

import (
	"context"
	"errors"
	"sync"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past this many bytes and rejects it outright.
	maxPasswordBytes = 72
)

// dummyHash is compared against when no account matches, so unknown
// emails take as long to reject as wrong passwords.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := utils.HashPassword("unused-password")
	return hash
})

// UserService manages accounts.
type UserService struct {
	db     *gorm.DB
	logger *gecho.Logger
}

func NewUserService(db *gorm.DB, logger *gecho.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

// UserInput is the writable representation of a user. The role is never
// writable through it.
type UserInput struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone_number"`
}

func (in UserInput) apply(u *models.User, partial bool, creating bool) (apperr.FieldErrors, error) {
	errs := apperr.FieldErrors{}
	requireFields(errs, partial, map[string]bool{
		"email":      in.Email != nil,
		"first_name": in.FirstName != nil,
		"last_name":  in.LastName != nil,
	})
	if creating && in.Password == nil {
		errs.Add("password", requiredMsg)
	}

	if in.Email != nil {
		u.Email = models.NormalizeEmail(*in.Email)
	}
	setString(&u.FirstName, in.FirstName)
	setString(&u.LastName, in.LastName)
	setOptional(&u.Phone, in.Phone)

	if in.Password != nil {
		switch {
		case len(*in.Password) < minPasswordLength:
			errs.Add("password", "must be at least 8 characters")
		case len(*in.Password) > maxPasswordBytes:
			errs.Add("password", "must be at most 72 bytes")
		default:
			hash, err := utils.HashPassword(*in.Password)
			if err != nil {
				return nil, err
			}
			u.PasswordHash = hash
		}
	}

	return errs, nil
}

// Register creates a customer account. It is the only operation open to
// anonymous callers.
func (s *UserService) Register(ctx context.Context, in UserInput) (*models.User, error) {
	user := models.User{Role: models.RoleCustomer}
	if err := s.save(ctx, &user, in, false, true); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user for admins and only the caller otherwise.
func (s *UserService) List(ctx context.Context, id *policy.Identity, pg utils.Pagination) ([]models.User, int64, error) {
	if err := policy.Authorize(id, policy.Users, policy.List, false); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if policy.ScopeToOwner(id, policy.Users) {
		query = query.Where("id = ?", id.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Order("email").Limit(pg.Limit).Offset(pg.Offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, id *policy.Identity, userID uuid.UUID) (*models.User, error) {
	return s.load(ctx, id, userID, policy.Retrieve)
}

func (s *UserService) Update(ctx context.Context, id *policy.Identity, userID uuid.UUID, in UserInput, partial bool) (*models.User, error) {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}

	user, err := s.load(ctx, id, userID, op)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, user, in, partial, false); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user together with everything the user owns.
func (s *UserService) Delete(ctx context.Context, id *policy.Identity, userID uuid.UUID) error {
	user, err := s.load(ctx, id, userID, policy.Delete)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id IN (?)", ownedOrders(tx, user.ID)).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id IN (?)", ownedOrders(tx, user.ID)).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
}

// Authenticate checks credentials and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := apperr.New(apperr.ErrUnauthenticated, "no active account found with the given credentials")

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.CheckPassword(dummyHash(), password)
		return nil, invalid
	case err != nil:
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, invalid
	}
	return &user, nil
}

// Identity loads the current role of userID. A missing user is reported
// as unauthenticated since its tokens no longer identify anyone.
func (s *UserService) Identity(ctx context.Context, userID uuid.UUID) (*policy.Identity, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ErrUnauthenticated, "user not found")
		}
		return nil, err
	}
	return &policy.Identity{UserID: user.ID, Role: user.Role}, nil
}

// EnsureAdmin creates the bootstrap admin or promotes an existing account.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin {
			return &user, nil
		}
		if err := s.db.WithContext(ctx).Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			return nil, err
		}
		s.logger.Info("Promoted bootstrap admin", gecho.Field("user_id", user.ID))
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	first, last := "Admin", "Admin"
	user = models.User{Role: models.RoleAdmin}
	in := UserInput{Email: &email, Password: &password, FirstName: &first, LastName: &last}
	if err := s.save(ctx, &user, in, false, true); err != nil {
		return nil, err
	}
	s.logger.Info("Created bootstrap admin", gecho.Field("user_id", user.ID))
	return &user, nil
}

func (s *UserService) load(ctx context.Context, id *policy.Identity, userID uuid.UUID, op policy.Operation) (*models.User, error) {
	if err := policy.Authorize(id, policy.Users, op, true); err != nil {
		return nil, err
	}

	user, err := first[models.User](s.db.WithContext(ctx), policy.Users, "id = ?", userID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.Users, op, id.Owns(user.ID)); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *models.User, in UserInput, partial, creating bool) error {
	errs, err := in.apply(user, partial, creating)
	if err != nil {
		return err
	}
	if verr, ok := apperr.AsValidation(user.Validate()); ok {
		errs.Merge(verr.Fields)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	taken, err := exists(db, &models.User{}, "email = ? AND id <> ?", user.Email, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.New(apperr.ErrConflict, "user with this email already exists")
	}

	if creating {
		err = db.Create(user).Error
	} else {
		err = db.Save(user).Error
	}
	return conflictOr(err, "user with this email already exists")
}
