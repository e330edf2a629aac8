package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer of the optical chain.
type Client struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName         string    `gorm:"column:full_name;not null"`
	Document         string    `gorm:"column:document;not null;uniqueIndex"`
	Email            *string   `gorm:"column:email"`
	Phone            *string   `gorm:"column:phone"`
	CreditLimitCents int64     `gorm:"column:credit_limit_cents;not null;default:0"`
	CreditUsedCents  int64     `gorm:"column:credit_used_cents;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
