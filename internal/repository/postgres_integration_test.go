//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderItem{},
		&models.Order{},
		&models.ProductImage{},
		&models.ProductVariant{},
		&models.Product{},
		&models.Brand{},
		&models.Category{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.ProductVariant{},
		&models.ProductImage{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresProductSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	for _, item := range []struct{ name, slug string }{
		{"Atlas Round", "atlas-round"},
		{"Harbor Rectangle", "harbor-rectangle"},
	} {
		product := &models.Product{
			Name:           item.name,
			Slug:           item.slug,
			SKU:            strings.ToUpper(item.slug),
			BasePrice:      models.NewMoneyFromInt(99),
			FrameType:      constants.FrameTypeEyeglasses,
			StockQuantity:  3,
			TrackInventory: true,
			IsActive:       true,
		}
		if err := repo.Create(product); err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}

	items, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, Search: "ATLAS", OnlyActive: true})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Slug != "atlas-round" {
		t.Fatalf("unexpected search result: total=%d items=%+v", total, items)
	}

	names, err := repo.SearchNames("harb", 10)
	if err != nil {
		t.Fatalf("search names failed: %v", err)
	}
	if len(names) != 1 || names[0].Name != "Harbor Rectangle" {
		t.Fatalf("unexpected suggestions: %+v", names)
	}
}

func TestPostgresConditionalStockDecrement(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	product := &models.Product{
		Name:           "Solstice Aviator",
		Slug:           "solstice-aviator",
		SKU:            "SOL-AVI",
		BasePrice:      models.NewMoneyFromInt(149),
		FrameType:      constants.FrameTypeSunglasses,
		StockQuantity:  2,
		TrackInventory: true,
		IsActive:       true,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	affected, err := repo.DecrementStock(product.ID, 2)
	if err != nil || affected != 1 {
		t.Fatalf("expected decrement to succeed, affected=%d err=%v", affected, err)
	}
	affected, err = repo.DecrementStock(product.ID, 1)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected oversell to be rejected")
	}
}
