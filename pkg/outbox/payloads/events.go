package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// SaleFinalizedEvent is emitted once per sale when finalization commits.
// Downstream consumers issue the fiscal document and the customer receipt.
type SaleFinalizedEvent struct {
	SaleID        uuid.UUID           `json:"sale_id"`
	StoreID       uuid.UUID           `json:"store_id"`
	ClientID      *uuid.UUID          `json:"client_id,omitempty"`
	SubtotalCents int64               `json:"subtotal_cents"`
	TotalCents    int64               `json:"total_cents"`
	Payments      []SalePaymentRecord `json:"payments"`
	FinalizedAt   time.Time           `json:"finalized_at"`
}

// SalePaymentRecord mirrors one settled allocation inside a sale event.
type SalePaymentRecord struct {
	Method      enums.PaymentMethod `json:"method"`
	AmountCents int64               `json:"amount_cents"`
}

// SaleVoidedEvent is emitted when a manager voids a finalized sale.
type SaleVoidedEvent struct {
	SaleID   uuid.UUID `json:"sale_id"`
	StoreID  uuid.UUID `json:"store_id"`
	Reason   string    `json:"reason,omitempty"`
	VoidedAt time.Time `json:"voided_at"`
}

// SaleReversedEvent is emitted when the reconciler rolls back a stale intent.
type SaleReversedEvent struct {
	SaleID     uuid.UUID `json:"sale_id"`
	StoreID    uuid.UUID `json:"store_id"`
	ReversedAt time.Time `json:"reversed_at"`
}

// ServiceOrderRegisteredEvent tells the lab a new assembly job exists.
type ServiceOrderRegisteredEvent struct {
	ServiceOrderID uuid.UUID `json:"service_order_id"`
	SaleID         uuid.UUID `json:"sale_id"`
	CollectionID   uuid.UUID `json:"collection_id"`
	StoreID        uuid.UUID `json:"store_id"`
}

// StockAdjustedEvent reports compensating inventory writes.
type StockAdjustedEvent struct {
	StoreID   uuid.UUID `json:"store_id"`
	ProductID uuid.UUID `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
}
