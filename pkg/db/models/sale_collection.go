package models

import (
	"github.com/google/uuid"
)

// SaleCollection groups the line items that make up one pair of glasses (or
// any other bundle sold as a unit).
type SaleCollection struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	SaleID        uuid.UUID      `gorm:"column:sale_id;type:uuid;not null;index"`
	Label         string         `gorm:"column:label;not null"`
	SubtotalCents int64          `gorm:"column:subtotal_cents;not null"`
	Items         []SaleLineItem `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	ServiceOrder  *ServiceOrder  `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}
