package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord tracks on-hand stock per store and product. Version guards
// concurrent decrements: every write bumps it, conditional writes match it.
type InventoryRecord struct {
	StoreID        uuid.UUID `gorm:"column:store_id;type:uuid;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	QuantityOnHand int       `gorm:"column:quantity_on_hand;not null;default:0"`
	Version        int64     `gorm:"column:version;not null;default:1"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
