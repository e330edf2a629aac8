package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// Sale is the frozen document produced by finalization. Line items snapshot
// catalog data so later price changes never rewrite history.
type Sale struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoreID             uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	ClientID            *uuid.UUID          `gorm:"column:client_id;type:uuid"`
	Status              enums.SaleStatus    `gorm:"column:status;type:text;not null;default:'draft'"`
	Currency            enums.Currency      `gorm:"column:currency;type:text;not null;default:'BRL'"`
	SubtotalCents       int64               `gorm:"column:subtotal_cents;not null"`
	DiscountType        *enums.DiscountType `gorm:"column:discount_type;type:text"`
	DiscountPercent     *decimal.Decimal    `gorm:"column:discount_percent;type:numeric(5,2)"`
	DiscountAmountCents int64               `gorm:"column:discount_amount_cents;not null;default:0"`
	TotalCents          int64               `gorm:"column:total_cents;not null"`
	PaidCents           int64               `gorm:"column:paid_cents;not null"`
	VoidReason          *string             `gorm:"column:void_reason"`
	FinalizedAt         *time.Time          `gorm:"column:finalized_at"`
	VoidedAt            *time.Time          `gorm:"column:voided_at"`
	Collections         []SaleCollection    `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Payments            []SalePayment       `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
