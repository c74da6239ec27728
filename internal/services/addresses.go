package services

import (
	"context"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

const concurrentDefaultMsg = "another default address was set concurrently, retry"

// AddressService keeps at most one default address per user.
type AddressService struct {
	db     *gorm.DB
	logger *gecho.Logger
}

func NewAddressService(db *gorm.DB, logger *gecho.Logger) *AddressService {
	return &AddressService{db: db, logger: logger}
}

// AddressInput carries no owner; addresses always belong to the caller.
type AddressInput struct {
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
	IsDefault  *bool   `json:"is_default"`
}

func (in AddressInput) apply(a *models.Address, partial bool) apperr.FieldErrors {
	errs := apperr.FieldErrors{}
	requireFields(errs, partial, map[string]bool{
		"street":      in.Street != nil,
		"city":        in.City != nil,
		"state":       in.State != nil,
		"postal_code": in.PostalCode != nil,
		"country":     in.Country != nil,
	})

	setString(&a.Street, in.Street)
	setString(&a.City, in.City)
	setString(&a.State, in.State)
	setString(&a.PostalCode, in.PostalCode)
	setString(&a.Country, in.Country)
	switch {
	case in.IsDefault != nil:
		a.IsDefault = *in.IsDefault
	case !partial:
		a.IsDefault = false
	}

	if verr, ok := apperr.AsValidation(a.Validate()); ok {
		errs.Merge(verr.Fields)
	}
	return errs
}

func (s *AddressService) List(ctx context.Context, id *policy.Identity, pg utils.Pagination) ([]models.Address, int64, error) {
	if err := policy.Authorize(id, policy.Addresses, policy.List, false); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", id.UserID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var addresses []models.Address
	if err := query.Order("created_at").Limit(pg.Limit).Offset(pg.Offset).Find(&addresses).Error; err != nil {
		return nil, 0, err
	}
	return addresses, total, nil
}

func (s *AddressService) Get(ctx context.Context, id *policy.Identity, addressID uuid.UUID) (*models.Address, error) {
	return s.load(s.db.WithContext(ctx), id, addressID, policy.Retrieve)
}

func (s *AddressService) Create(ctx context.Context, id *policy.Identity, in AddressInput) (*models.Address, error) {
	if err := policy.Authorize(id, policy.Addresses, policy.Create, false); err != nil {
		return nil, err
	}

	address := models.Address{UserID: id.UserID}
	if err := in.apply(&address, false).Err(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.claimDefault(tx, &address); err != nil {
			return err
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return nil, conflictOr(err, concurrentDefaultMsg)
	}
	return &address, nil
}

func (s *AddressService) Update(ctx context.Context, id *policy.Identity, addressID uuid.UUID, in AddressInput, partial bool) (*models.Address, error) {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}

	var address *models.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		address, err = s.load(tx, id, addressID, op)
		if err != nil {
			return err
		}
		if err := in.apply(address, partial).Err(); err != nil {
			return err
		}
		if err := s.claimDefault(tx, address); err != nil {
			return err
		}
		return tx.Save(address).Error
	})
	if err != nil {
		return nil, conflictOr(err, concurrentDefaultMsg)
	}
	return address, nil
}

func (s *AddressService) Delete(ctx context.Context, id *policy.Identity, addressID uuid.UUID) error {
	address, err := s.load(s.db.WithContext(ctx), id, addressID, policy.Delete)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", address.ID).Error
}

// claimDefault clears the other defaults of the owner when a is the new
// default. The owner row lock serializes concurrent claims.
func (s *AddressService) claimDefault(tx *gorm.DB, a *models.Address) error {
	if !a.IsDefault {
		return nil
	}

	if err := forUpdate(tx).Select("id").First(&models.User{}, "id = ?", a.UserID).Error; err != nil {
		return err
	}

	res := tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default AND id <> ?", a.UserID, a.ID).
		Update("is_default", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.logger.Debug("Cleared previous default address", gecho.Field("user_id", a.UserID))
	}
	return nil
}

func (s *AddressService) load(q *gorm.DB, id *policy.Identity, addressID uuid.UUID, op policy.Operation) (*models.Address, error) {
	if err := policy.Authorize(id, policy.Addresses, op, true); err != nil {
		return nil, err
	}
	return first[models.Address](q, policy.Addresses, "id = ? AND user_id = ?", addressID, id.UserID)
}
