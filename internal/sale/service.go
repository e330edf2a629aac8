package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/internal/cart"
	"github.com/mvcampos/oticaflow-backend/internal/clients"
	"github.com/mvcampos/oticaflow-backend/internal/discount"
	"github.com/mvcampos/oticaflow-backend/internal/inventory"
	"github.com/mvcampos/oticaflow-backend/internal/payment"
	"github.com/mvcampos/oticaflow-backend/internal/serviceorder"
	dbpkg "github.com/mvcampos/oticaflow-backend/pkg/db"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/metrics"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox/payloads"
)

const maxDecrementRetries = 3

// FinalizeInput is the fully resolved checkout state handed to the commit
// path. SaleID doubles as the idempotency key for the whole finalization.
type FinalizeInput struct {
	SaleID   uuid.UUID
	StoreID  uuid.UUID
	ClientID *uuid.UUID
	Cart     cart.Cart
	Discount *discount.Discount
	Resolver *serviceorder.Resolver
	Plan     *payment.Plan
	Actor    *outbox.ActorRef
}

// VoidInput reverses a finalized sale under manager approval.
type VoidInput struct {
	SaleID     uuid.UUID
	ManagerPIN string
	Reason     string
	Actor      *outbox.ActorRef
}

// Service is the sale commit and lifecycle surface.
type Service interface {
	Finalize(ctx context.Context, input FinalizeInput) (*models.Sale, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	Void(ctx context.Context, input VoidInput) (*models.Sale, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory inventory.Store
	credit    clients.Directory
	metrics   *metrics.SaleMetrics
	logg      *logger.Logger
}

// NewService builds the sale service with its required collaborators.
// Metrics may be nil, every recorder is nil-safe.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	inventoryStore inventory.Store,
	credit clients.Directory,
	saleMetrics *metrics.SaleMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventoryStore == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if credit == nil {
		return nil, fmt.Errorf("client directory required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outboxSvc,
		inventory: inventoryStore,
		credit:    credit,
		metrics:   saleMetrics,
		logg:      logg,
	}, nil
}

type appliedDecrement struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type intentSnapshot struct {
	StoreID  uuid.UUID          `json:"store_id"`
	ClientID *uuid.UUID         `json:"client_id,omitempty"`
	Cart     cart.Cart          `json:"cart"`
	Discount *discount.Discount `json:"discount,omitempty"`
	Plan     *payment.Plan      `json:"plan"`
}

func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*models.Sale, error) {
	started := time.Now()

	if input.SaleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.Cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if input.Resolver == nil || input.Plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolver and payment plan required")
	}

	ctx = s.logg.WithSaleID(ctx, input.SaleID.String())

	if sale, err := s.resolveExistingIntent(ctx, input.SaleID); sale != nil || err != nil {
		return sale, err
	}

	payable, err := s.checkPreconditions(ctx, input)
	if err != nil {
		s.metrics.IncFinalizeOutcome("precondition_failed")
		return nil, err
	}

	if err := s.writeIntent(ctx, input); err != nil {
		return nil, err
	}

	decrements := aggregateDecrements(input.Cart)
	applied, err := s.applyDecrements(ctx, input, decrements)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeSaleStateUnknown {
			// The reconciler resolved the intent mid-flight and already
			// compensated every recorded decrement.
			s.metrics.IncFinalizeOutcome("state_unknown")
			return nil, err
		}
		s.reverseApplied(ctx, input.SaleID, input.StoreID, applied, err)
		s.metrics.IncFinalizeOutcome("insufficient_stock")
		return nil, err
	}

	if err := s.repo.TransitionIntent(ctx, input.SaleID,
		[]enums.SaleIntentStatus{enums.SaleIntentPending},
		map[string]any{"status": enums.SaleIntentInventoryApplied}); err != nil {
		if errors.Is(err, ErrIntentStateChanged) {
			s.metrics.IncFinalizeOutcome("state_unknown")
			return nil, pkgerrors.New(pkgerrors.CodeSaleStateUnknown,
				"sale intent was resolved by another process")
		}
		s.reverseApplied(ctx, input.SaleID, input.StoreID, applied, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark intent applied")
	}

	sale, err := s.persistSale(ctx, input, payable)
	if err != nil {
		if errors.Is(err, ErrIntentStateChanged) {
			// The intent was reversed before the sale document committed; the
			// transaction rolled back, so nothing was sold.
			s.metrics.IncFinalizeOutcome("state_unknown")
			return nil, pkgerrors.New(pkgerrors.CodeSaleStateUnknown,
				"sale intent was resolved by another process")
		}
		// The intent stays inventory_applied for the reconciler; retrying
		// blindly could double-charge.
		s.logg.Error(ctx, "sale document write failed after inventory decrement", err)
		s.metrics.IncFinalizeOutcome("state_unknown")
		return nil, pkgerrors.Wrap(pkgerrors.CodeSaleStateUnknown, err,
			"sale state unknown, do not retry blindly")
	}

	s.metrics.ObserveFinalizeDuration(input.StoreID.String(), time.Since(started))
	s.metrics.IncFinalizeOutcome("success")
	s.logg.Info(ctx, "sale finalized")
	return sale, nil
}

// resolveExistingIntent handles re-submissions of a sale id. A completed
// intent returns the already finalized sale; anything unresolved refuses the
// retry instead of risking a double decrement.
func (s *service) resolveExistingIntent(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	intent, err := s.repo.FindIntent(ctx, saleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale intent")
	}
	if intent == nil {
		return nil, nil
	}
	switch intent.Status {
	case enums.SaleIntentCompleted:
		sale, err := s.repo.FindSaleByID(ctx, saleID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load finalized sale")
		}
		return sale, nil
	case enums.SaleIntentReversed:
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			"a previous attempt for this sale was reversed, start a new sale")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeSaleStateUnknown,
			"a previous finalize attempt is still unresolved")
	}
}

func (s *service) checkPreconditions(ctx context.Context, input FinalizeInput) (int64, error) {
	if !input.Resolver.CanFinalize() {
		pending := input.Resolver.PendingCollections()
		return 0, pkgerrors.New(pkgerrors.CodeIncompleteServiceOrder,
			"service order intake incomplete").
			WithDetails(map[string]any{"collection_ids": pending})
	}

	payable, err := discount.Apply(input.Cart.SubtotalCents(), input.Discount)
	if err != nil {
		return 0, err
	}
	if payable != input.Plan.PayableCents {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			"payment plan was priced against a different total")
	}
	if !input.Plan.IsSettled() {
		return 0, pkgerrors.New(pkgerrors.CodeUnallocatedBalance, "payable total not fully allocated").
			WithDetails(map[string]any{"remaining_cents": input.Plan.RemainingCents()})
	}
	if err := input.Plan.Validate(ctx, s.credit); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment plan invalid")
	}
	if !payment.FullyAuthorized(input.Plan) {
		return 0, pkgerrors.New(pkgerrors.CodePaymentAuthorization,
			"one or more payment entries are not authorized")
	}
	return payable, nil
}

func (s *service) writeIntent(ctx context.Context, input FinalizeInput) error {
	snapshot, err := json.Marshal(intentSnapshot{
		StoreID:  input.StoreID,
		ClientID: input.ClientID,
		Cart:     input.Cart,
		Discount: input.Discount,
		Plan:     input.Plan,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "snapshot finalize input")
	}

	intent := &models.SaleIntent{
		SaleID:  input.SaleID,
		StoreID: input.StoreID,
		Status:  enums.SaleIntentPending,
		Payload: snapshot,
	}
	if err := s.repo.CreateIntent(ctx, intent); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeSaleStateUnknown,
				"a concurrent finalize for this sale is in progress")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale intent")
	}
	return nil
}

// applyDecrements walks the aggregated line quantities. Each decrement and
// its record on the intent commit in one transaction guarded on the intent
// still being pending, so no stock write can exist that the intent does not
// mention, and a reconciler-reversed intent stops the finalize before it
// touches more stock.
func (s *service) applyDecrements(ctx context.Context, input FinalizeInput, decrements []appliedDecrement) ([]appliedDecrement, error) {
	applied := make([]appliedDecrement, 0, len(decrements))

	for _, dec := range decrements {
		if err := s.applyOneDecrement(ctx, input.SaleID, input.StoreID, append(applied, dec), dec); err != nil {
			return applied, err
		}
		applied = append(applied, dec)
	}
	return applied, nil
}

func (s *service) applyOneDecrement(ctx context.Context, saleID, storeID uuid.UUID, record []appliedDecrement, dec appliedDecrement) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode applied decrements")
	}

	var lastErr error
	for attempt := 0; attempt < maxDecrementRetries; attempt++ {
		available, version, err := s.inventory.ReadQuantity(ctx, storeID, dec.ProductID)
		if err != nil {
			return err
		}
		if available < dec.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": dec.ProductID,
					"available":  available,
					"requested":  dec.Quantity,
				})
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).TransitionIntent(ctx, saleID,
				[]enums.SaleIntentStatus{enums.SaleIntentPending},
				map[string]any{"decrements": encoded}); err != nil {
				return err
			}
			return s.inventory.WithTx(tx).ConditionalDecrement(ctx, storeID, dec.ProductID, dec.Quantity, version)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrIntentStateChanged) {
			return pkgerrors.New(pkgerrors.CodeSaleStateUnknown,
				"sale intent was resolved by another process")
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStockConflict {
			return err
		}
		lastErr = err
		s.metrics.IncStockConflict(storeID.String())
	}

	// Conflicts persisted through every retry; surface it as the stock
	// problem the operator can act on.
	return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, lastErr,
		"stock contention exhausted retries").
		WithDetails(map[string]any{"product_id": dec.ProductID, "requested": dec.Quantity})
}

// reverseApplied compensates decrements already written and marks the intent
// reversed, in one guarded transaction. A missed guard means another process
// resolved the intent and compensated already, so compensating again would
// double count. Other failures roll back and leave the intent to the
// reconciler.
func (s *service) reverseApplied(ctx context.Context, saleID, storeID uuid.UUID, applied []appliedDecrement, cause error) {
	message := cause.Error()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).TransitionIntent(ctx, saleID,
			[]enums.SaleIntentStatus{enums.SaleIntentPending},
			map[string]any{
				"status":     enums.SaleIntentReversed,
				"last_error": &message,
			}); err != nil {
			return err
		}
		inv := s.inventory.WithTx(tx)
		for _, dec := range applied {
			if err := inv.CompensatingIncrement(ctx, storeID, dec.ProductID, dec.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrIntentStateChanged) {
		s.logg.Info(ctx, "intent already resolved by another process, skipping compensation")
		return
	}
	if err != nil {
		s.logg.Error(ctx, "reversing intent failed, left for the reconciler", err)
	}
}

func (s *service) persistSale(ctx context.Context, input FinalizeInput, payableCents int64) (*models.Sale, error) {
	now := time.Now().UTC()
	saleDoc, orders, err := buildDocuments(input, payableCents, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateSale(ctx, saleDoc); err != nil {
			return err
		}
		if err := repo.CreateServiceOrders(ctx, orders); err != nil {
			return err
		}

		if input.ClientID != nil {
			credit := s.credit.WithTx(tx)
			for _, entry := range input.Plan.Entries {
				if entry.Method != enums.PaymentMethodInstallmentCredit {
					continue
				}
				if err := credit.ConsumeCredit(ctx, *input.ClientID, entry.AmountCents); err != nil {
					return err
				}
			}
		}

		if err := repo.TransitionIntent(ctx, input.SaleID,
			[]enums.SaleIntentStatus{enums.SaleIntentInventoryApplied},
			map[string]any{"status": enums.SaleIntentCompleted}); err != nil {
			return err
		}

		paymentRecords := make([]payloads.SalePaymentRecord, 0, len(saleDoc.Payments))
		for _, p := range saleDoc.Payments {
			paymentRecords = append(paymentRecords, payloads.SalePaymentRecord{
				Method:      p.Method,
				AmountCents: p.AmountCents,
			})
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleFinalized,
			AggregateType: enums.AggregateSale,
			AggregateID:   saleDoc.ID,
			Version:       1,
			Actor:         input.Actor,
			Data: payloads.SaleFinalizedEvent{
				SaleID:        saleDoc.ID,
				StoreID:       saleDoc.StoreID,
				ClientID:      saleDoc.ClientID,
				SubtotalCents: saleDoc.SubtotalCents,
				TotalCents:    saleDoc.TotalCents,
				Payments:      paymentRecords,
				FinalizedAt:   now,
			},
		}); err != nil {
			return err
		}

		for _, order := range orders {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventServiceOrderRegistered,
				AggregateType: enums.AggregateServiceOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         input.Actor,
				Data: payloads.ServiceOrderRegisteredEvent{
					ServiceOrderID: order.ID,
					SaleID:         saleDoc.ID,
					CollectionID:   order.CollectionID,
					StoreID:        saleDoc.StoreID,
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saleDoc, nil
}

// buildDocuments freezes the cart, discount and allocations into the durable
// sale shape. Later catalog or price edits never touch these rows.
func buildDocuments(input FinalizeInput, payableCents int64, now time.Time) (*models.Sale, []models.ServiceOrder, error) {
	subtotal := input.Cart.SubtotalCents()

	saleDoc := &models.Sale{
		ID:            input.SaleID,
		StoreID:       input.StoreID,
		ClientID:      input.ClientID,
		Status:        enums.SaleStatusFinalized,
		Currency:      enums.CurrencyBRL,
		SubtotalCents: subtotal,
		TotalCents:    payableCents,
		PaidCents:     input.Plan.AllocatedCents(),
		FinalizedAt:   &now,
	}

	if input.Discount != nil {
		amount, err := input.Discount.ComputedAmountCents(subtotal)
		if err != nil {
			return nil, nil, err
		}
		discountType := input.Discount.Type
		saleDoc.DiscountType = &discountType
		saleDoc.DiscountAmountCents = amount
		if discountType == enums.DiscountTypePercentage {
			percent := input.Discount.Percent
			saleDoc.DiscountPercent = &percent
		}
	}

	var orders []models.ServiceOrder
	for _, coll := range input.Cart.Collections {
		collection := models.SaleCollection{
			ID:            coll.ID,
			SaleID:        input.SaleID,
			Label:         coll.Label,
			SubtotalCents: coll.SubtotalCents(),
		}
		for _, item := range coll.Items {
			collection.Items = append(collection.Items, models.SaleLineItem{
				ID:             uuid.New(),
				CollectionID:   coll.ID,
				ProductID:      item.ProductID,
				SKU:            item.SKU,
				Name:           item.Name,
				Category:       item.Category,
				UnitPriceCents: item.UnitPriceCents,
				Quantity:       item.Quantity,
				LineTotalCents: item.LineTotalCents(),
			})
		}
		saleDoc.Collections = append(saleDoc.Collections, collection)

		if input.Resolver.Status(coll.ID) == enums.ServiceOrderComplete {
			prescription, err := json.Marshal(input.Resolver.Payload(coll.ID))
			if err != nil {
				return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode prescription")
			}
			registeredAt := now
			orders = append(orders, models.ServiceOrder{
				ID:             uuid.New(),
				CollectionID:   coll.ID,
				Status:         enums.ServiceOrderComplete,
				RequiredFields: pq.StringArray(serviceorder.IntakeFields()),
				Prescription:   prescription,
				RegisteredAt:   &registeredAt,
			})
		}
	}

	for i, entry := range input.Plan.Entries {
		meta, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment metadata")
		}
		record := models.SalePayment{
			ID:          uuid.New(),
			SaleID:      input.SaleID,
			Position:    i,
			Method:      entry.Method,
			AmountCents: entry.AmountCents,
			Metadata:    meta,
		}
		if entry.Confirmation != nil {
			ref := entry.Confirmation.Ref
			authorizedAt := entry.Confirmation.AuthorizedAt
			record.AuthorizationRef = &ref
			record.AuthorizedAt = &authorizedAt
		}
		saleDoc.Payments = append(saleDoc.Payments, record)
	}

	return saleDoc, orders, nil
}

// aggregateDecrements collapses the cart into one decrement per product,
// summing across collections.
func aggregateDecrements(c cart.Cart) []appliedDecrement {
	index := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, coll := range c.Collections {
		for _, item := range coll.Items {
			if _, seen := index[item.ProductID]; !seen {
				order = append(order, item.ProductID)
			}
			index[item.ProductID] += item.Quantity
		}
	}
	decrements := make([]appliedDecrement, 0, len(order))
	for _, productID := range order {
		decrements = append(decrements, appliedDecrement{
			ProductID: productID,
			Quantity:  index[productID],
		})
	}
	return decrements
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindSaleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) Void(ctx context.Context, input VoidInput) (*models.Sale, error) {
	if input.SaleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	if input.ManagerPIN == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manager pin required")
	}

	saleDoc, err := s.Get(ctx, input.SaleID)
	if err != nil {
		return nil, err
	}

	credential, err := s.repo.FindManagerCredential(ctx, saleDoc.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no manager pin configured for store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager credential")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PINHash), []byte(input.ManagerPIN)); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager pin rejected")
	}

	if saleDoc.Status == enums.SaleStatusVoided {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale already voided")
	}
	if saleDoc.Status != enums.SaleStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only finalized sales can be voided")
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reason := input.Reason
		if err := repo.UpdateSale(ctx, saleDoc.ID, map[string]any{
			"status":      enums.SaleStatusVoided,
			"void_reason": &reason,
			"voided_at":   &now,
		}); err != nil {
			return err
		}

		inv := s.inventory.WithTx(tx)
		for _, coll := range saleDoc.Collections {
			for _, item := range coll.Items {
				if err := inv.CompensatingIncrement(ctx, saleDoc.StoreID, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if saleDoc.ClientID != nil {
			credit := s.credit.WithTx(tx)
			for _, p := range saleDoc.Payments {
				if p.Method != enums.PaymentMethodInstallmentCredit {
					continue
				}
				if err := credit.ReleaseCredit(ctx, *saleDoc.ClientID, p.AmountCents); err != nil {
					return err
				}
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleVoided,
			AggregateType: enums.AggregateSale,
			AggregateID:   saleDoc.ID,
			Version:       1,
			Actor:         input.Actor,
			Data: payloads.SaleVoidedEvent{
				SaleID:   saleDoc.ID,
				StoreID:  saleDoc.StoreID,
				Reason:   input.Reason,
				VoidedAt: now,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void sale")
	}

	saleDoc.Status = enums.SaleStatusVoided
	saleDoc.VoidReason = &input.Reason
	saleDoc.VoidedAt = &now
	s.logg.Info(s.logg.WithSaleID(ctx, saleDoc.ID.String()), "sale voided")
	return saleDoc, nil
}
