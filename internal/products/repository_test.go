package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/internal/repo"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := conn.Exec(schema).Error; err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return conn
}

func TestFindActiveProduct(t *testing.T) {
	db := openTestDB(t)
	tx := db.Begin()
	defer tx.Rollback()

	repository := NewRepository(repo.NewBase(tx))
	ctx := context.Background()

	product := &models.Product{
		SKU:            fmt.Sprintf("FR-%s", uuid.NewString()),
		Name:           "Titanium frame",
		Category:       enums.CategoryFrame,
		UnitPriceCents: 48900,
		Active:         true,
	}
	if err := repository.Create(ctx, product); err != nil {
		t.Fatalf("create: %v", err)
	}

	byID, err := repository.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.UnitPriceCents != 48900 {
		t.Fatalf("unexpected price %d", byID.UnitPriceCents)
	}

	bySKU, err := repository.FindBySKU(ctx, product.SKU)
	if err != nil {
		t.Fatalf("find by sku: %v", err)
	}
	if bySKU.ID != product.ID {
		t.Fatalf("sku lookup returned wrong product %s", bySKU.ID)
	}
}

func TestInactiveProductHidden(t *testing.T) {
	db := openTestDB(t)
	tx := db.Begin()
	defer tx.Rollback()

	repository := NewRepository(repo.NewBase(tx))
	ctx := context.Background()

	product := &models.Product{
		SKU:            fmt.Sprintf("LE-%s", uuid.NewString()),
		Name:           "Discontinued lens",
		Category:       enums.CategoryLens,
		UnitPriceCents: 12000,
		Active:         false,
	}
	if err := repository.Create(ctx, product); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := repository.FindByID(ctx, product.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}

	if _, err := repository.FindBySKU(ctx, ""); err == nil {
		t.Fatal("expected error for empty sku")
	}
}
