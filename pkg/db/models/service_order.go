package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// ServiceOrder records the lab assembly requirement of one sale collection.
// Prescription holds the intake payload exactly as validated.
type ServiceOrder struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID   uuid.UUID                `gorm:"column:collection_id;type:uuid;not null;uniqueIndex"`
	Status         enums.ServiceOrderStatus `gorm:"column:status;type:text;not null;default:'pending_intake'"`
	RequiredFields pq.StringArray           `gorm:"column:required_fields;type:text[]"`
	Prescription   json.RawMessage          `gorm:"column:prescription;type:jsonb"`
	RegisteredAt   *time.Time               `gorm:"column:registered_at"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
