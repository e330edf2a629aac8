package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSale            OutboxAggregateType = "sale"
	AggregateServiceOrder    OutboxAggregateType = "service_order"
	AggregateInventoryRecord OutboxAggregateType = "inventory_record"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSale,
	AggregateServiceOrder,
	AggregateInventoryRecord,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventSaleFinalized          OutboxEventType = "sale_finalized"
	EventSaleVoided             OutboxEventType = "sale_voided"
	EventSaleReversed           OutboxEventType = "sale_reversed"
	EventServiceOrderRegistered OutboxEventType = "service_order_registered"
	EventStockAdjusted          OutboxEventType = "stock_adjusted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSaleFinalized,
	EventSaleVoided,
	EventSaleReversed,
	EventServiceOrderRegistered,
	EventStockAdjusted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
