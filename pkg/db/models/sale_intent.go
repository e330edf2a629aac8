package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// SaleIntent is the durable marker written before inventory decrements begin.
// The sale id doubles as the idempotency key for the whole finalization, and
// Decrements records exactly which stock writes have been applied so a crashed
// attempt can be completed or reversed later.
type SaleIntent struct {
	SaleID       uuid.UUID              `gorm:"column:sale_id;type:uuid;primaryKey"`
	StoreID      uuid.UUID              `gorm:"column:store_id;type:uuid;not null;index"`
	Status       enums.SaleIntentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Payload      json.RawMessage        `gorm:"column:payload;type:jsonb;not null"`
	Decrements   json.RawMessage        `gorm:"column:decrements;type:jsonb"`
	AttemptCount int                    `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string                `gorm:"column:last_error"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
