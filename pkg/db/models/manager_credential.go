package models

import (
	"time"

	"github.com/google/uuid"
)

// ManagerCredential holds the bcrypt hash of the PIN a manager types to
// approve sensitive counter operations such as voiding a finalized sale.
type ManagerCredential struct {
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;primaryKey"`
	PINHash   string    `gorm:"column:pin_hash;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
