package inventory

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS inventory_records (
  store_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity_on_hand INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 1,
  updated_at DATETIME,
  PRIMARY KEY (store_id, product_id)
);`
	if err := conn.Exec(schema).Error; err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	// One connection serializes concurrent writers; sqlite's shared cache
	// returns table-lock errors otherwise.
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return conn
}
