package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/config"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		SalesTopic: "sales",
		LabTopic:   "lab",
	})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return reg
}

func encodedEnvelope(t *testing.T, data interface{}) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       payload,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

func TestResolveSaleFinalized(t *testing.T) {
	reg := testRegistry(t)
	saleID := uuid.New()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSaleFinalized,
		AggregateType: enums.AggregateSale,
		AggregateID:   saleID,
		Payload: encodedEnvelope(t, payloads.SaleFinalizedEvent{
			SaleID:     saleID,
			StoreID:    uuid.New(),
			TotalCents: 129900,
		}),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Descriptor.Topic != "sales" {
		t.Fatalf("expected sales topic, got %s", resolved.Descriptor.Topic)
	}
	typed, ok := resolved.Payload.(*payloads.SaleFinalizedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if typed.SaleID != saleID || typed.TotalCents != 129900 {
		t.Fatalf("payload fields not preserved: %+v", typed)
	}
}

func TestResolveServiceOrderRoutesToLabTopic(t *testing.T) {
	reg := testRegistry(t)

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventServiceOrderRegistered,
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   uuid.New(),
		Payload: encodedEnvelope(t, payloads.ServiceOrderRegisteredEvent{
			ServiceOrderID: uuid.New(),
			SaleID:         uuid.New(),
			CollectionID:   uuid.New(),
		}),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Descriptor.Topic != "lab" {
		t.Fatalf("expected lab topic, got %s", resolved.Descriptor.Topic)
	}
}

func TestResolveRejectsUnknownAndMismatched(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Resolve(models.OutboxEvent{
		EventType:     "unknown_event",
		AggregateType: enums.AggregateSale,
		AggregateID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventSaleFinalized,
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error for aggregate mismatch")
	}

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventSaleFinalized,
		AggregateType: enums.AggregateSale,
	})
	if err == nil {
		t.Fatal("expected error for missing aggregate id")
	}
}
