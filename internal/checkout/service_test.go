package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvcampos/oticaflow-backend/internal/discount"
	"github.com/mvcampos/oticaflow-backend/internal/payment"
	"github.com/mvcampos/oticaflow-backend/internal/sale"
	"github.com/mvcampos/oticaflow-backend/internal/serviceorder"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

type stubStock struct {
	onHand map[uuid.UUID]int
}

func (s *stubStock) ReadQuantity(ctx context.Context, storeID, productID uuid.UUID) (int, int64, error) {
	return s.onHand[productID], 1, nil
}

type stubClientDir struct {
	headroom map[uuid.UUID]int64
}

func (s *stubClientDir) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return &models.Client{ID: id}, nil
}

func (s *stubClientDir) CreditHeadroomCents(ctx context.Context, clientID uuid.UUID) (int64, error) {
	return s.headroom[clientID], nil
}

type stubFinalizer struct {
	lastInput sale.FinalizeInput
	err       error
}

func (s *stubFinalizer) Finalize(ctx context.Context, input sale.FinalizeInput) (*models.Sale, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Sale{ID: input.SaleID, Status: enums.SaleStatusFinalized}, nil
}

type checkoutFixture struct {
	store     *MemoryStore
	catalog   *stubCatalog
	stock     *stubStock
	finalizer *stubFinalizer
	svc       Service
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	store := NewMemoryStore()
	catalog := &stubCatalog{products: make(map[uuid.UUID]*models.Product)}
	stock := &stubStock{onHand: make(map[uuid.UUID]int)}
	finalizer := &stubFinalizer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(store, catalog, stock,
		&stubClientDir{headroom: make(map[uuid.UUID]int64)},
		payment.DefaultGateways(), finalizer, logg)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return &checkoutFixture{store: store, catalog: catalog, stock: stock, finalizer: finalizer, svc: svc}
}

func (fx *checkoutFixture) seedProduct(priceCents int64, category enums.ProductCategory, stock int) uuid.UUID {
	id := uuid.New()
	fx.catalog.products[id] = &models.Product{
		ID:             id,
		SKU:            "SKU-" + id.String()[:8],
		Name:           "Product " + id.String()[:8],
		Category:       category,
		UnitPriceCents: priceCents,
		Active:         true,
	}
	fx.stock.onHand[id] = stock
	return id
}

func TestAddItemSnapshotsPriceAndStock(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, err := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	productID := fx.seedProduct(45000, enums.CategoryFrame, 2)
	session, err = fx.svc.AddItem(ctx, session.ID, AddItemInput{
		CollectionLabel: "Pair 1",
		ProductID:       productID,
		Quantity:        2,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if got := session.Cart.SubtotalCents(); got != 90000 {
		t.Fatalf("expected catalog price snapshot, got subtotal %d", got)
	}
	if session.Plan.PayableCents != 90000 {
		t.Fatalf("payable not resynced: %d", session.Plan.PayableCents)
	}

	// Third unit exceeds the on-hand snapshot of 2.
	collID := session.Cart.Collections[0].ID
	_, err = fx.svc.AddItem(ctx, session.ID, AddItemInput{
		CollectionID: &collID,
		ProductID:    productID,
		Quantity:     1,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock got %v", err)
	}
}

func TestDiscountResyncsPayable(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	productID := fx.seedProduct(100000, enums.CategoryFrame, 5)
	if _, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{ProductID: productID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	session, err := fx.svc.SetDiscount(ctx, session.ID, &discount.Discount{
		Type:    enums.DiscountTypePercentage,
		Percent: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("set discount: %v", err)
	}
	if session.Plan.PayableCents != 90000 {
		t.Fatalf("expected payable 90000 got %d", session.Plan.PayableCents)
	}

	summary, err := fx.svc.Summary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.DiscountCents != 10000 || summary.PayableCents != 90000 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestPaymentLifecycleToAuthorized(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	productID := fx.seedProduct(60000, enums.CategoryAccessory, 5)
	if _, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{ProductID: productID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if _, err := fx.svc.AddPayment(ctx, session.ID, enums.PaymentMethodCash, 40000); err != nil {
		t.Fatalf("add cash: %v", err)
	}
	session, err := fx.svc.AddPayment(ctx, session.ID, enums.PaymentMethodPix, 20000)
	if err != nil {
		t.Fatalf("add pix: %v", err)
	}

	// A PIX charge needs an expiry (or txid) before it can be authorized.
	due := time.Now().Add(30 * time.Minute)
	amount := int64(20000)
	session, err = fx.svc.UpdatePayment(ctx, session.ID, 1, UpdatePaymentInput{
		AmountCents: &amount,
		Metadata:    &payment.Metadata{Pix: &payment.PixMetadata{DueAt: &due}},
	})
	if err != nil {
		t.Fatalf("update pix: %v", err)
	}
	if session.Plan.RemainingCents() != 0 {
		t.Fatalf("expected settled plan got remaining %d", session.Plan.RemainingCents())
	}

	summary, _ := fx.svc.Summary(ctx, session.ID)
	if summary.CanFinalize {
		t.Fatal("unauthorized plan must not be finalizable")
	}

	session, err = fx.svc.AuthorizePayments(ctx, session.ID)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !payment.FullyAuthorized(session.Plan) {
		t.Fatal("expected all entries authorized")
	}

	summary, _ = fx.svc.Summary(ctx, session.ID)
	if !summary.CanFinalize {
		t.Fatalf("expected finalizable summary, blockers %v", summary.Blockers)
	}
}

func TestOverAllocationRejectedOnAdd(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	productID := fx.seedProduct(50000, enums.CategoryFrame, 5)
	if _, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{ProductID: productID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	_, err := fx.svc.AddPayment(ctx, session.ID, enums.PaymentMethodCash, 60000)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOverAllocation {
		t.Fatalf("expected over-allocation got %v", err)
	}

	// The failed entry must not linger in the stored session.
	session, err = fx.svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := session.Plan.AllocatedCents(); got != 0 {
		t.Fatalf("failed allocation persisted: %d", got)
	}
}

func TestDiscountBelowAllocationsBlocksSummary(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	productID := fx.seedProduct(100000, enums.CategoryFrame, 5)
	if _, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{ProductID: productID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := fx.svc.AddPayment(ctx, session.ID, enums.PaymentMethodCash, 100000); err != nil {
		t.Fatalf("add payment: %v", err)
	}

	if _, err := fx.svc.SetDiscount(ctx, session.ID, &discount.Discount{
		Type:    enums.DiscountTypePercentage,
		Percent: decimal.NewFromInt(50),
	}); err != nil {
		t.Fatalf("set discount: %v", err)
	}

	summary, err := fx.svc.Summary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.CanFinalize {
		t.Fatal("over-allocated session must not finalize")
	}
	found := false
	for _, blocker := range summary.Blockers {
		if blocker == "allocations exceed payable total" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected over-allocation blocker, got %v", summary.Blockers)
	}
}

func TestIntakeFlow(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	lensID := fx.seedProduct(80000, enums.CategoryLens, 5)
	session, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{
		CollectionLabel: "Pair 1",
		ProductID:       lensID,
		Quantity:        1,
	})
	if err != nil {
		t.Fatalf("add lens: %v", err)
	}
	collID := session.Cart.Collections[0].ID

	form, err := fx.svc.IntakeForm(ctx, session.ID, collID)
	if err != nil {
		t.Fatalf("intake form: %v", err)
	}
	if form.Status != enums.ServiceOrderPendingIntake || len(form.RequiredFields) == 0 {
		t.Fatalf("unexpected intake form %+v", form)
	}

	session, err = fx.svc.SubmitIntake(ctx, session.ID, collID, serviceorder.IntakePayload{
		ClientID:            uuid.New(),
		RightEye:            serviceorder.EyeReading{SphereDiopters: -2.25},
		LeftEye:             serviceorder.EyeReading{SphereDiopters: -2},
		PupillaryDistanceMM: 62,
	})
	if err != nil {
		t.Fatalf("submit intake: %v", err)
	}
	if session.Orders.Status(collID) != enums.ServiceOrderComplete {
		t.Fatalf("intake not completed: %s", session.Orders.Status(collID))
	}

	// Editing the collection's items reopens the intake.
	frameID := fx.seedProduct(40000, enums.CategoryFrame, 5)
	session, err = fx.svc.AddItem(ctx, session.ID, AddItemInput{
		CollectionID: &collID,
		ProductID:    frameID,
		Quantity:     1,
	})
	if err != nil {
		t.Fatalf("add frame: %v", err)
	}
	if session.Orders.Status(collID) != enums.ServiceOrderPendingIntake {
		t.Fatalf("intake should reopen after item change: %s", session.Orders.Status(collID))
	}
}

func TestRemoveLastItemDropsCollection(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	productID := fx.seedProduct(30000, enums.CategorySunglasses, 5)
	session, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{ProductID: productID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	collID := session.Cart.Collections[0].ID

	session, err = fx.svc.RemoveItem(ctx, session.ID, collID, productID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(session.Cart.Collections) != 0 {
		t.Fatalf("empty collection should be dropped, got %d", len(session.Cart.Collections))
	}
}

func TestFinalizeDelegatesAndDeletesSession(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	productID := fx.seedProduct(50000, enums.CategoryFrame, 5)
	if _, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{ProductID: productID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := fx.svc.AddPayment(ctx, session.ID, enums.PaymentMethodCash, 50000); err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if _, err := fx.svc.AuthorizePayments(ctx, session.ID); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	saleDoc, err := fx.svc.Finalize(ctx, session.ID, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if saleDoc.ID != session.SaleID {
		t.Fatalf("sale id %s does not match session sale id %s", saleDoc.ID, session.SaleID)
	}
	if fx.finalizer.lastInput.StoreID != session.StoreID {
		t.Fatal("finalize input missing store id")
	}

	_, err = fx.svc.Get(ctx, session.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("session should be gone after finalize, got %v", err)
	}
}

func TestFinalizeFailureKeepsSession(t *testing.T) {
	fx := newCheckoutFixture(t)
	ctx := context.Background()

	session, _ := fx.svc.Start(ctx, StartInput{StoreID: uuid.New()})
	productID := fx.seedProduct(50000, enums.CategoryFrame, 5)
	if _, err := fx.svc.AddItem(ctx, session.ID, AddItemInput{ProductID: productID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	fx.finalizer.err = pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")

	if _, err := fx.svc.Finalize(ctx, session.ID, nil); err == nil {
		t.Fatal("expected finalize failure")
	}
	if _, err := fx.svc.Get(ctx, session.ID); err != nil {
		t.Fatalf("session must survive a failed finalize: %v", err)
	}
}
