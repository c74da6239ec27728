package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

type ProductImageService struct {
	db *gorm.DB
}

func NewProductImageService(db *gorm.DB) *ProductImageService {
	return &ProductImageService{db: db}
}

type ProductImageInput struct {
	ProductID *uuid.UUID `json:"product_id"`
	ImageURL  *string    `json:"image_url"`
	AltText   *string    `json:"alt_text"`
}

func (s *ProductImageService) List(ctx context.Context, id *policy.Identity, productID *uuid.UUID, pg utils.Pagination) ([]models.ProductImage, int64, error) {
	if err := policy.Authorize(id, policy.ProductImages, policy.List, false); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.ProductImage{})
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var images []models.ProductImage
	if err := query.Order("created_at").Limit(pg.Limit).Offset(pg.Offset).Find(&images).Error; err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

func (s *ProductImageService) Get(ctx context.Context, id *policy.Identity, imageID uuid.UUID) (*models.ProductImage, error) {
	if err := policy.Authorize(id, policy.ProductImages, policy.Retrieve, false); err != nil {
		return nil, err
	}
	return first[models.ProductImage](s.db.WithContext(ctx), policy.ProductImages, "id = ?", imageID)
}

func (s *ProductImageService) Create(ctx context.Context, id *policy.Identity, in ProductImageInput) (*models.ProductImage, error) {
	if err := policy.Authorize(id, policy.ProductImages, policy.Create, false); err != nil {
		return nil, err
	}

	image := models.ProductImage{}
	if err := s.save(ctx, &image, in, false, true); err != nil {
		return nil, err
	}
	return &image, nil
}

func (s *ProductImageService) Update(ctx context.Context, id *policy.Identity, imageID uuid.UUID, in ProductImageInput, partial bool) (*models.ProductImage, error) {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}
	if err := policy.Authorize(id, policy.ProductImages, op, false); err != nil {
		return nil, err
	}

	image, err := first[models.ProductImage](s.db.WithContext(ctx), policy.ProductImages, "id = ?", imageID)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, image, in, partial, false); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *ProductImageService) Delete(ctx context.Context, id *policy.Identity, imageID uuid.UUID) error {
	if err := policy.Authorize(id, policy.ProductImages, policy.Delete, false); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	image, err := first[models.ProductImage](db, policy.ProductImages, "id = ?", imageID)
	if err != nil {
		return err
	}
	return db.Delete(&models.ProductImage{}, "id = ?", image.ID).Error
}

func (s *ProductImageService) save(ctx context.Context, image *models.ProductImage, in ProductImageInput, partial, creating bool) error {
	errs := apperr.FieldErrors{}
	requireFields(errs, partial, map[string]bool{"product_id": in.ProductID != nil})

	db := s.db.WithContext(ctx)
	if in.ProductID != nil {
		found, err := exists(db, &models.Product{}, "id = ?", *in.ProductID)
		if err != nil {
			return err
		}
		if found {
			image.ProductID = *in.ProductID
		} else {
			errs.Add("product_id", "does not exist")
		}
	}
	setString(&image.ImageURL, in.ImageURL)
	setOptional(&image.AltText, in.AltText)

	if verr, ok := apperr.AsValidation(image.Validate()); ok {
		if in.ProductID != nil {
			delete(verr.Fields, "product_id")
		}
		errs.Merge(verr.Fields)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	var err error
	if creating {
		err = db.Create(image).Error
	} else {
		err = db.Save(image).Error
	}
	return missingOr(err, "product_id")
}
