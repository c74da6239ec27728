package services_test

import (
	"testing"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/database/dbtest"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestCatalogRequiresAdmin(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	cat := category(t, svc, adm, "Books")

	_, err := svc.Products.Create(ctx, alice, services.ProductInput{
		Name: ptr("Novel"), Price: ptr(money("1")), CategoryID: &cat.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = svc.Categories.Create(ctx, alice, services.CategoryInput{Name: ptr("Toys")})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, _, err = svc.Products.List(ctx, alice, services.ProductFilter{}, pg)
	assert.NoError(t, err)
}

func TestProductDefaultsAndValidation(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	cat := category(t, svc, adm, "Books")

	p := product(t, svc, adm, cat, "Novel", "9.99")
	assert.True(t, p.IsActive)

	_, err := svc.Products.Create(ctx, adm, services.ProductInput{
		Name: ptr("Bad"), Price: ptr(money("-1")), CategoryID: &cat.ID, StockQuantity: ptr(-2),
	})
	requireFieldError(t, err, "price")
	requireFieldError(t, err, "stock_quantity")

	_, err = svc.Products.Create(ctx, adm, services.ProductInput{
		Name: ptr("Orphan"), Price: ptr(money("1")), CategoryID: ptr(uuid.New()),
	})
	requireFieldError(t, err, "category_id")

	updated, err := svc.Products.Update(ctx, adm, p.ID, services.ProductInput{IsActive: ptr(false)}, true)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Novel", updated.Name)
}

func TestProductFilters(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	books := category(t, svc, adm, "Books")
	games := category(t, svc, adm, "Games")

	product(t, svc, adm, books, "Zebra Atlas", "30.00")
	cheap := product(t, svc, adm, books, "Apple Guide", "5.00")
	product(t, svc, adm, games, "Chess", "15.00")

	_, err := svc.Products.Update(ctx, adm, cheap.ID, services.ProductInput{Description: ptr("Pocket ATLAS of fruit")}, true)
	require.NoError(t, err)
	_, err = svc.Products.Update(ctx, adm, cheap.ID, services.ProductInput{IsActive: ptr(false)}, true)
	require.NoError(t, err)

	list := func(f services.ProductFilter) []string {
		products, _, err := svc.Products.List(ctx, adm, f, pg)
		require.NoError(t, err)
		return names(products)
	}

	assert.Equal(t, []string{"Apple Guide", "Chess", "Zebra Atlas"}, list(services.ProductFilter{}))
	assert.Equal(t, []string{"Apple Guide", "Zebra Atlas"}, list(services.ProductFilter{Category: books.ID.String()}))
	assert.Equal(t, []string{"Chess", "Zebra Atlas"}, list(services.ProductFilter{IsActive: "true"}))
	assert.Equal(t, []string{"Chess"}, list(services.ProductFilter{Price: "15"}))
	assert.Equal(t, []string{"Apple Guide", "Zebra Atlas"}, list(services.ProductFilter{Search: "atlas"}))
	assert.Equal(t, []string{"Zebra Atlas", "Chess", "Apple Guide"}, list(services.ProductFilter{Ordering: "-price"}))
	assert.Equal(t, []string{"Apple Guide", "Chess", "Zebra Atlas"}, list(services.ProductFilter{Ordering: "bogus"}))
	assert.Equal(t, []string{"Apple Guide", "Chess", "Zebra Atlas"}, list(services.ProductFilter{StockQuantity: "10"}))

	_, _, err = svc.Products.List(ctx, adm, services.ProductFilter{IsActive: "maybe", Price: "cheap", Category: "x"}, pg)
	requireFieldError(t, err, "is_active")
	requireFieldError(t, err, "price")
	requireFieldError(t, err, "category")
}

func TestCategoryParent(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	parent := category(t, svc, adm, "Media")

	child, err := svc.Categories.Create(ctx, adm, services.CategoryInput{Name: ptr("Books"), ParentID: ptr(parent.ID.String())})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)

	_, err = svc.Categories.Update(ctx, adm, child.ID, services.CategoryInput{ParentID: ptr(child.ID.String())}, true)
	requireFieldError(t, err, "parent_id")

	_, err = svc.Categories.Create(ctx, adm, services.CategoryInput{Name: ptr("Media")})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, svc.Categories.Delete(ctx, adm, parent.ID))

	orphan, err := svc.Categories.Get(ctx, adm, child.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.ParentID)

	detached, err := svc.Categories.Update(ctx, adm, child.ID, services.CategoryInput{ParentID: ptr("")}, true)
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)
}

func TestProductImages(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	alice := register(t, svc, "alice@example.com")
	p := product(t, svc, adm, category(t, svc, adm, "Books"), "Novel", "9.99")

	image, err := svc.ProductImages.Create(ctx, adm, services.ProductImageInput{
		ProductID: &p.ID, ImageURL: ptr("https://cdn.example.com/novel.png"), AltText: ptr("cover"),
	})
	require.NoError(t, err)

	_, err = svc.ProductImages.Create(ctx, adm, services.ProductImageInput{ProductID: &p.ID, ImageURL: ptr("not a url")})
	requireFieldError(t, err, "image_url")

	_, err = svc.ProductImages.Update(ctx, alice, image.ID, services.ProductImageInput{AltText: ptr("x")}, true)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	images, total, err := svc.ProductImages.List(ctx, alice, &p.ID, pg)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, image.ID, images[0].ID)

	require.NoError(t, svc.Products.Delete(ctx, adm, p.ID))
	_, err = svc.ProductImages.Get(ctx, alice, image.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProductSearchIsLiteral(t *testing.T) {
	svc := newServices(t, nil)
	adm := admin(t, svc)
	cat := category(t, svc, adm, "Clothing")

	product(t, svc, adm, cat, "100% Cotton", "20.00")
	product(t, svc, adm, cat, "Tee_Shirt", "10.00")
	product(t, svc, adm, cat, "Tee Shirt", "10.00")

	search := func(term string) []string {
		products, _, err := svc.Products.List(ctx, adm, services.ProductFilter{Search: term}, pg)
		require.NoError(t, err)
		return names(products)
	}

	assert.Equal(t, []string{"100% Cotton"}, search("%"))
	assert.Equal(t, []string{"Tee_Shirt"}, search("_"))
	assert.Equal(t, []string{"Tee Shirt", "Tee_Shirt"}, search("tee"))
	assert.Empty(t, search(`\`))
}

func TestProductCategoryDeletedDuringWrite(t *testing.T) {
	db := dbtest.Open(t)
	svc := services.New(db, gecho.NewDefaultLogger(), testTokens, nil)
	adm := admin(t, svc)
	cat := category(t, svc, adm, "Books")

	err := db.Callback().Create().Before("gorm:create").Register("test:drop_category", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.Product); ok {
			tx.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM categories WHERE id = ?", cat.ID)
		}
	})
	require.NoError(t, err)

	_, err = svc.Products.Create(ctx, adm, services.ProductInput{
		Name: ptr("Novel"), Price: ptr(money("9.99")), StockQuantity: ptr(1), CategoryID: &cat.ID,
	})
	requireFieldError(t, err, "category_id")
}
