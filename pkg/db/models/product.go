package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// Product is a catalog entry sellable at the counter.
type Product struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU            string                `gorm:"column:sku;not null;uniqueIndex"`
	Name           string                `gorm:"column:name;not null"`
	Category       enums.ProductCategory `gorm:"column:category;type:text;not null"`
	UnitPriceCents int64                 `gorm:"column:unit_price_cents;not null"`
	Active         bool                  `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
