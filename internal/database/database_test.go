package database_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/database/dbtest"
	"github.com/example/storefront/internal/models"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Ping(db))

	for _, table := range []string{"users", "categories", "products", "product_images", "orders", "order_items", "payments", "addresses"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSingleDefaultAddressIndex(t *testing.T) {
	db := dbtest.Open(t)

	user := models.User{Email: "a@x.com", FirstName: "A", LastName: "B", Role: models.RoleCustomer, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	address := func(isDefault bool) *models.Address {
		return &models.Address{
			UserID: user.ID, Street: "1 Main", City: "X", State: "Y",
			PostalCode: "12345", Country: "Z", IsDefault: isDefault,
		}
	}

	require.NoError(t, db.Create(address(true)).Error)
	require.NoError(t, db.Create(address(false)).Error)
	require.NoError(t, db.Create(address(false)).Error)

	err := db.Create(address(true)).Error
	require.Error(t, err)
	assert.True(t, apperr.IsUniqueViolation(err), err)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db := dbtest.Open(t)

	err := db.Create(&models.Order{UserID: uuid.New(), Status: models.OrderPending}).Error
	require.Error(t, err)
	assert.True(t, apperr.IsForeignKeyViolation(err), err)
}
