// Package dbtest opens isolated in-memory sqlite databases with the storefront
// schema for package tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Open returns a fresh database; each call gets its own shared-cache name so
// parallel tests never see each other's rows.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:storefront_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// keep the shared-cache database alive for the whole test
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// SeedProduct inserts a product with optional variants.
func SeedProduct(t testing.TB, conn *gorm.DB, product *models.Product) *models.Product {
	t.Helper()
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// Int64 and Int return pointers for nullable price and stock columns.
func Int64(v int64) *int64 { return &v }

func Int(v int) *int { return &v }

func String(v string) *string { return &v }
