package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/internal/cart"
	"github.com/mvcampos/oticaflow-backend/internal/discount"
	"github.com/mvcampos/oticaflow-backend/internal/payment"
	"github.com/mvcampos/oticaflow-backend/internal/serviceorder"
)

// Session is the whole in-flight checkout: cart, discount, payment plan and
// service-order progress. It lives in redis as JSON until the sale is
// finalized or the session is cancelled; nothing here is durable.
//
// SaleID is minted once at session start and reused on every finalize
// attempt, it is the idempotency key for the commit path.
type Session struct {
	ID        uuid.UUID              `json:"id"`
	SaleID    uuid.UUID              `json:"sale_id"`
	StoreID   uuid.UUID              `json:"store_id"`
	ClientID  *uuid.UUID             `json:"client_id,omitempty"`
	Cart      cart.Cart              `json:"cart"`
	Discount  *discount.Discount     `json:"discount,omitempty"`
	Plan      *payment.Plan          `json:"plan"`
	Orders    *serviceorder.Resolver `json:"orders"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewSession starts an empty session for a store.
func NewSession(storeID uuid.UUID, clientID *uuid.UUID) *Session {
	now := time.Now().UTC()
	plan, _ := payment.NewPlan(0)
	return &Session{
		ID:        uuid.New(),
		SaleID:    uuid.New(),
		StoreID:   storeID,
		ClientID:  clientID,
		Plan:      plan,
		Orders:    serviceorder.NewResolver(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
