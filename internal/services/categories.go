package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

type CategoryService struct {
	db       *gorm.DB
	products *ProductService
}

func NewCategoryService(db *gorm.DB, products *ProductService) *CategoryService {
	return &CategoryService{db: db, products: products}
}

// CategoryInput takes parent_id as a string so an empty value can detach
// the category from its parent.
type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id"`
}

func (s *CategoryService) List(ctx context.Context, id *policy.Identity, pg utils.Pagination) ([]models.Category, int64, error) {
	if err := policy.Authorize(id, policy.Categories, policy.List, false); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Category{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	if err := query.Order("name").Limit(pg.Limit).Offset(pg.Offset).Find(&categories).Error; err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

func (s *CategoryService) Get(ctx context.Context, id *policy.Identity, categoryID uuid.UUID) (*models.Category, error) {
	if err := policy.Authorize(id, policy.Categories, policy.Retrieve, false); err != nil {
		return nil, err
	}
	return first[models.Category](s.db.WithContext(ctx), policy.Categories, "id = ?", categoryID)
}

func (s *CategoryService) Create(ctx context.Context, id *policy.Identity, in CategoryInput) (*models.Category, error) {
	if err := policy.Authorize(id, policy.Categories, policy.Create, false); err != nil {
		return nil, err
	}

	category := models.Category{}
	if err := s.save(ctx, &category, in, false, true); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) Update(ctx context.Context, id *policy.Identity, categoryID uuid.UUID, in CategoryInput, partial bool) (*models.Category, error) {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}
	if err := policy.Authorize(id, policy.Categories, op, false); err != nil {
		return nil, err
	}

	category, err := first[models.Category](s.db.WithContext(ctx), policy.Categories, "id = ?", categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, category, in, partial, false); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete detaches the child categories and removes the category with all
// of its products.
func (s *CategoryService) Delete(ctx context.Context, id *policy.Identity, categoryID uuid.UUID) error {
	if err := policy.Authorize(id, policy.Categories, policy.Delete, false); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	category, err := first[models.Category](db, policy.Categories, "id = ?", categoryID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", category.ID).Update("parent_id", nil).Error; err != nil {
			return err
		}

		var productIDs []uuid.UUID
		if err := tx.Model(&models.Product{}).Where("category_id = ?", category.ID).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if err := s.products.deleteProducts(tx, productIDs); err != nil {
			return err
		}

		return tx.Delete(&models.Category{}, "id = ?", category.ID).Error
	})
}

func (s *CategoryService) save(ctx context.Context, category *models.Category, in CategoryInput, partial, creating bool) error {
	errs := apperr.FieldErrors{}
	requireFields(errs, partial, map[string]bool{"name": in.Name != nil})

	db := s.db.WithContext(ctx)
	setString(&category.Name, in.Name)
	setOptional(&category.Description, in.Description)

	if in.ParentID != nil {
		raw := strings.TrimSpace(*in.ParentID)
		switch parentID, err := uuid.Parse(raw); {
		case raw == "":
			category.ParentID = nil
		case err != nil:
			errs.Add("parent_id", "must be a valid UUID")
		default:
			found, err := exists(db, &models.Category{}, "id = ?", parentID)
			if err != nil {
				return err
			}
			if !found && parentID != category.ID {
				errs.Add("parent_id", "does not exist")
			}
			category.ParentID = &parentID
		}
	}

	if verr, ok := apperr.AsValidation(category.Validate()); ok {
		errs.Merge(verr.Fields)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	taken, err := exists(db, &models.Category{}, "name = ? AND id <> ?", category.Name, category.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.New(apperr.ErrConflict, "category with this name already exists")
	}

	if creating {
		err = db.Create(category).Error
	} else {
		err = db.Save(category).Error
	}
	if apperr.IsUniqueViolation(err) {
		return apperr.New(apperr.ErrConflict, "category with this name already exists")
	}
	return err
}
