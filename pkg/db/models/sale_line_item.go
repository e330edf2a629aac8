package models

import (
	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// SaleLineItem is a snapshot of a product at the moment of finalization.
type SaleLineItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID   uuid.UUID             `gorm:"column:collection_id;type:uuid;not null;index"`
	ProductID      uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	SKU            string                `gorm:"column:sku;not null"`
	Name           string                `gorm:"column:name;not null"`
	Category       enums.ProductCategory `gorm:"column:category;type:text;not null"`
	UnitPriceCents int64                 `gorm:"column:unit_price_cents;not null"`
	Quantity       int                   `gorm:"column:quantity;not null"`
	LineTotalCents int64                 `gorm:"column:line_total_cents;not null"`
}
