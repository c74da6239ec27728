package database

import (
	"database/sql"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storefront/internal/models"
)

// Connect ensures the database exists, opens it and runs migrations.
func Connect(dsn string, logSQL bool) (*gorm.DB, error) {
	if err := ensureDatabase(dsn); err != nil {
		return nil, err
	}

	level := logger.Warn
	if logSQL {
		level = logger.Info
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate creates or updates every table, parents before children, and the
// partial index that keeps a single default address per user.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Address{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return conn.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_single_default
		ON addresses (user_id) WHERE is_default`).Error
}

// Ping checks that the database answers.
func Ping(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
