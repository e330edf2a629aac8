package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// SalePayment is one settled allocation of a finalized sale. Position keeps
// the operator-entered order.
type SalePayment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SaleID           uuid.UUID           `gorm:"column:sale_id;type:uuid;not null;index"`
	Position         int                 `gorm:"column:position;not null"`
	Method           enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	AmountCents      int64               `gorm:"column:amount_cents;not null"`
	Metadata         json.RawMessage     `gorm:"column:metadata;type:jsonb"`
	AuthorizationRef *string             `gorm:"column:authorization_ref"`
	AuthorizedAt     *time.Time          `gorm:"column:authorized_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
}
