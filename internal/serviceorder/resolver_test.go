package serviceorder

import (
	"testing"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/internal/cart"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

func lensCart(t *testing.T) (*cart.Cart, uuid.UUID) {
	t.Helper()
	c := &cart.Cart{}
	collID := c.AddCollection("Pair 1")
	err := c.AddItem(collID, cart.Item{
		ProductID:        uuid.New(),
		SKU:              "LE-1",
		Name:             "Single vision lens",
		Category:         enums.CategoryLens,
		UnitPriceCents:   30000,
		Quantity:         1,
		StockSnapshotQty: 5,
	})
	if err != nil {
		t.Fatalf("add lens: %v", err)
	}
	return c, collID
}

func validPayload() IntakePayload {
	return IntakePayload{
		ClientID:            uuid.New(),
		RightEye:            EyeReading{SphereDiopters: -1.25, CylinderDiopters: -0.5, AxisDegrees: 90},
		LeftEye:             EyeReading{SphereDiopters: -1.5},
		PupillaryDistanceMM: 62,
	}
}

func TestEvaluateDerivesStatusFromCategories(t *testing.T) {
	t.Parallel()

	c := &cart.Cart{}
	accessories := c.AddCollection("Accessories")
	if err := c.AddItem(accessories, cart.Item{
		ProductID:        uuid.New(),
		SKU:              "AC-1",
		Name:             "Cleaning kit",
		Category:         enums.CategoryAccessory,
		UnitPriceCents:   2500,
		Quantity:         1,
		StockSnapshotQty: 10,
	}); err != nil {
		t.Fatalf("add accessory: %v", err)
	}

	r := NewResolver()
	r.Evaluate(c)
	if got := r.Status(accessories); got != enums.ServiceOrderNotRequired {
		t.Fatalf("expected not_required got %s", got)
	}
	if !r.CanFinalize() {
		t.Fatal("accessory-only cart must be finalizable")
	}
}

func TestIntakeLifecycle(t *testing.T) {
	t.Parallel()

	c, collID := lensCart(t)
	r := NewResolver()
	r.Evaluate(c)

	if got := r.Status(collID); got != enums.ServiceOrderPendingIntake {
		t.Fatalf("expected pending_intake got %s", got)
	}
	if r.CanFinalize() {
		t.Fatal("pending intake must block finalization")
	}
	if pending := r.PendingCollections(); len(pending) != 1 || pending[0] != collID {
		t.Fatalf("unexpected pending set %v", pending)
	}

	fields, err := r.RequiredFields(collID)
	if err != nil {
		t.Fatalf("required fields: %v", err)
	}
	if len(fields) == 0 {
		t.Fatal("expected intake fields for lens collection")
	}

	if err := r.CompleteIntake(collID, validPayload()); err != nil {
		t.Fatalf("complete intake: %v", err)
	}
	if got := r.Status(collID); got != enums.ServiceOrderComplete {
		t.Fatalf("expected complete got %s", got)
	}
	if !r.CanFinalize() {
		t.Fatal("completed intake must unblock finalization")
	}
}

func TestCartMutationReopensIntake(t *testing.T) {
	t.Parallel()

	c, collID := lensCart(t)
	r := NewResolver()
	r.Evaluate(c)
	if err := r.CompleteIntake(collID, validPayload()); err != nil {
		t.Fatalf("complete intake: %v", err)
	}

	// Re-evaluating an unchanged cart keeps the intake closed.
	r.Evaluate(c)
	if got := r.Status(collID); got != enums.ServiceOrderComplete {
		t.Fatalf("unchanged cart reopened intake: %s", got)
	}

	if err := c.AddItem(collID, cart.Item{
		ProductID:        uuid.New(),
		SKU:              "LE-2",
		Name:             "Blue light filter lens",
		Category:         enums.CategoryLens,
		UnitPriceCents:   45000,
		Quantity:         1,
		StockSnapshotQty: 3,
	}); err != nil {
		t.Fatalf("add second lens: %v", err)
	}
	r.Evaluate(c)
	if got := r.Status(collID); got != enums.ServiceOrderPendingIntake {
		t.Fatalf("expected reopened intake got %s", got)
	}
}

func TestCompleteIntakeRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()

	c, collID := lensCart(t)
	r := NewResolver()
	r.Evaluate(c)

	missing := validPayload()
	missing.ClientID = uuid.Nil
	err := r.CompleteIntake(collID, missing)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	noAxis := validPayload()
	noAxis.RightEye = EyeReading{SphereDiopters: -2, CylinderDiopters: -0.75}
	if err := r.CompleteIntake(collID, noAxis); err == nil {
		t.Fatal("expected error for cylinder without axis")
	}

	noPD := validPayload()
	noPD.PupillaryDistanceMM = 0
	if err := r.CompleteIntake(collID, noPD); err == nil {
		t.Fatal("expected error for missing pupillary distance")
	}

	if err := r.CompleteIntake(uuid.New(), validPayload()); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

func TestCompleteIntakeRejectsNotRequiredCollection(t *testing.T) {
	t.Parallel()

	c := &cart.Cart{}
	collID := c.AddCollection("Accessories")
	if err := c.AddItem(collID, cart.Item{
		ProductID:        uuid.New(),
		SKU:              "AC-2",
		Name:             "Case",
		Category:         enums.CategoryAccessory,
		UnitPriceCents:   1500,
		Quantity:         1,
		StockSnapshotQty: 4,
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	r := NewResolver()
	r.Evaluate(c)

	err := r.CompleteIntake(collID, validPayload())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	fields, err := r.RequiredFields(collID)
	if err != nil {
		t.Fatalf("required fields: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("expected no fields for accessory collection, got %v", fields)
	}
}
