package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/validation"
)

// Category groups products; children keep living when their parent goes away.
type Category struct {
	BaseModel
	Name        string     `gorm:"size:100;uniqueIndex;not null" json:"name" validate:"required,max=100"`
	Description *string    `gorm:"type:text" json:"description"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Parent      *Category  `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-" validate:"-"`
}

// Validate checks field rules and forbids a category being its own parent.
func (c *Category) Validate() error {
	errs := validation.Struct(c)
	if c.ParentID != nil && c.ID != uuid.Nil && *c.ParentID == c.ID {
		errs.Add("parent_id", "a category cannot be its own parent")
	}
	return errs.Err()
}

type Product struct {
	BaseModel
	Name          string          `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Description   *string         `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null" json:"stock_quantity" validate:"gte=0"`
	CategoryID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      *Category       `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
}

func (p *Product) Validate() error {
	errs := validation.Struct(p)
	validation.Money(errs, "price", p.Price)
	if p.CategoryID == uuid.Nil {
		errs.Add("category_id", "is required")
	}
	return errs.Err()
}

type ProductImage struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	ImageURL  string    `gorm:"size:200" json:"image_url" validate:"omitempty,url,max=200"`
	AltText   *string   `gorm:"size:100" json:"alt_text" validate:"omitempty,max=100"`
}

func (i *ProductImage) Validate() error {
	errs := validation.Struct(i)
	if i.ProductID == uuid.Nil {
		errs.Add("product_id", "is required")
	}
	return errs.Err()
}
