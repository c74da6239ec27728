package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/policy"
	"github.com/example/storefront/internal/utils"
)

var productOrderings = map[string]string{
	"name":           "name",
	"price":          "price",
	"stock_quantity": "stock_quantity",
	"created_at":     "created_at",
	"updated_at":     "updated_at",
}

type ProductService struct {
	db     *gorm.DB
	logger *gecho.Logger
}

func NewProductService(db *gorm.DB, logger *gecho.Logger) *ProductService {
	return &ProductService{db: db, logger: logger}
}

type ProductInput struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	IsActive      *bool            `json:"is_active"`
}

// ProductFilter holds the raw query values of a product listing. Blank
// values are ignored.
type ProductFilter struct {
	Category      string
	IsActive      string
	Price         string
	StockQuantity string
	Search        string
	Ordering      string
}

// apply narrows query by the exact filters and the search term.
func (f ProductFilter) apply(query *gorm.DB) (*gorm.DB, error) {
	errs := apperr.FieldErrors{}

	if f.Category != "" {
		if id, err := uuid.Parse(f.Category); err != nil {
			errs.Add("category", "must be a valid UUID")
		} else {
			query = query.Where("category_id = ?", id)
		}
	}
	if f.IsActive != "" {
		if active, err := strconv.ParseBool(f.IsActive); err != nil {
			errs.Add("is_active", "must be a boolean")
		} else {
			query = query.Where("is_active = ?", active)
		}
	}
	if f.Price != "" {
		if price, err := decimal.NewFromString(f.Price); err != nil {
			errs.Add("price", "must be a number")
		} else {
			query = query.Where("price = ?", price)
		}
	}
	if f.StockQuantity != "" {
		if qty, err := strconv.Atoi(f.StockQuantity); err != nil {
			errs.Add("stock_quantity", "must be an integer")
		} else {
			query = query.Where("stock_quantity = ?", qty)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, like, like)
	}
	return query, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// orderBy turns "-price,name" into an ORDER BY clause. Unknown fields are
// dropped; the result falls back to name.
func (f ProductFilter) orderBy() string {
	var clauses []string
	for _, field := range strings.Split(f.Ordering, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		column, ok := productOrderings[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		if desc {
			column += " DESC"
		}
		clauses = append(clauses, column)
	}
	if len(clauses) == 0 {
		return "name"
	}
	return strings.Join(clauses, ", ")
}

func (s *ProductService) List(ctx context.Context, id *policy.Identity, filter ProductFilter, pg utils.Pagination) ([]models.Product, int64, error) {
	if err := policy.Authorize(id, policy.Products, policy.List, false); err != nil {
		return nil, 0, err
	}

	query, err := filter.apply(s.db.WithContext(ctx).Model(&models.Product{}))
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := query.Order(filter.orderBy()).Limit(pg.Limit).Offset(pg.Offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductService) Get(ctx context.Context, id *policy.Identity, productID uuid.UUID) (*models.Product, error) {
	if err := policy.Authorize(id, policy.Products, policy.Retrieve, false); err != nil {
		return nil, err
	}
	return first[models.Product](s.db.WithContext(ctx), policy.Products, "id = ?", productID)
}

func (s *ProductService) Create(ctx context.Context, id *policy.Identity, in ProductInput) (*models.Product, error) {
	if err := policy.Authorize(id, policy.Products, policy.Create, false); err != nil {
		return nil, err
	}

	product := models.Product{IsActive: true}
	if err := s.save(ctx, &product, in, false, true); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, id *policy.Identity, productID uuid.UUID, in ProductInput, partial bool) (*models.Product, error) {
	op := policy.Update
	if partial {
		op = policy.PartialUpdate
	}
	if err := policy.Authorize(id, policy.Products, op, false); err != nil {
		return nil, err
	}

	product, err := first[models.Product](s.db.WithContext(ctx), policy.Products, "id = ?", productID)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, product, in, partial, false); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product, its images and every order line that
// references it, then refreshes the affected order totals.
func (s *ProductService) Delete(ctx context.Context, id *policy.Identity, productID uuid.UUID) error {
	if err := policy.Authorize(id, policy.Products, policy.Delete, false); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	product, err := first[models.Product](db, policy.Products, "id = ?", productID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return s.deleteProducts(tx, []uuid.UUID{product.ID})
	})
}

// deleteProducts cascades the removal of ids inside tx.
func (s *ProductService) deleteProducts(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	var orderIDs []uuid.UUID
	if err := tx.Model(&models.OrderItem{}).Distinct("order_id").Where("product_id IN ?", ids).Pluck("order_id", &orderIDs).Error; err != nil {
		return err
	}

	if err := tx.Where("product_id IN ?", ids).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Product{}).Error; err != nil {
		return err
	}
	if err := recomputeOrders(tx, orderIDs); err != nil {
		return err
	}

	if len(orderIDs) > 0 {
		s.logger.Info("Removed order lines of deleted products",
			gecho.Field("products", len(ids)),
			gecho.Field("orders", len(orderIDs)),
		)
	}
	return nil
}

func (s *ProductService) save(ctx context.Context, product *models.Product, in ProductInput, partial, creating bool) error {
	errs := apperr.FieldErrors{}
	requireFields(errs, partial, map[string]bool{
		"name":        in.Name != nil,
		"price":       in.Price != nil,
		"category_id": in.CategoryID != nil,
	})

	db := s.db.WithContext(ctx)
	setString(&product.Name, in.Name)
	setOptional(&product.Description, in.Description)
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.StockQuantity != nil {
		product.StockQuantity = *in.StockQuantity
	} else if !partial {
		product.StockQuantity = 0
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	} else if !partial {
		product.IsActive = true
	}
	if in.CategoryID != nil {
		found, err := exists(db, &models.Category{}, "id = ?", *in.CategoryID)
		if err != nil {
			return err
		}
		if found {
			product.CategoryID = *in.CategoryID
		} else {
			errs.Add("category_id", "does not exist")
		}
	}

	if verr, ok := apperr.AsValidation(product.Validate()); ok {
		if in.CategoryID != nil {
			delete(verr.Fields, "category_id")
		}
		errs.Merge(verr.Fields)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	var err error
	if creating {
		err = db.Create(product).Error
	} else {
		err = db.Save(product).Error
	}
	return missingOr(err, "category_id")
}
