package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/internal/cart"
	"github.com/mvcampos/oticaflow-backend/internal/discount"
	"github.com/mvcampos/oticaflow-backend/internal/payment"
	"github.com/mvcampos/oticaflow-backend/internal/sale"
	"github.com/mvcampos/oticaflow-backend/internal/serviceorder"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
)

const authorizeTimeout = 10 * time.Second

type productCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockReader interface {
	ReadQuantity(ctx context.Context, storeID, productID uuid.UUID) (int, int64, error)
}

type clientLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	CreditHeadroomCents(ctx context.Context, clientID uuid.UUID) (int64, error)
}

type saleFinalizer interface {
	Finalize(ctx context.Context, input sale.FinalizeInput) (*models.Sale, error)
}

// StartInput opens a new session at a store's counter.
type StartInput struct {
	StoreID  uuid.UUID
	ClientID *uuid.UUID
}

// AddItemInput adds a product to a collection. When CollectionID is nil a new
// collection is created with CollectionLabel.
type AddItemInput struct {
	CollectionID    *uuid.UUID
	CollectionLabel string
	ProductID       uuid.UUID
	Quantity        int
}

// UpdatePaymentInput patches one payment entry. Nil fields are left alone.
type UpdatePaymentInput struct {
	AmountCents *int64
	Metadata    *payment.Metadata
}

// CollectionSummary is one collection's slice of the session summary.
type CollectionSummary struct {
	ID                 uuid.UUID                `json:"id"`
	Label              string                   `json:"label"`
	SubtotalCents      int64                    `json:"subtotal_cents"`
	ServiceOrderStatus enums.ServiceOrderStatus `json:"service_order_status"`
}

// Summary is what the counter screen renders between actions.
type Summary struct {
	SessionID      uuid.UUID           `json:"session_id"`
	SaleID         uuid.UUID           `json:"sale_id"`
	SubtotalCents  int64               `json:"subtotal_cents"`
	DiscountCents  int64               `json:"discount_cents"`
	PayableCents   int64               `json:"payable_cents"`
	AllocatedCents int64               `json:"allocated_cents"`
	RemainingCents int64               `json:"remaining_cents"`
	Collections    []CollectionSummary `json:"collections"`
	CanFinalize    bool                `json:"can_finalize"`
	Blockers       []string            `json:"blockers,omitempty"`
}

// IntakeForm is the contract pushed to the prescription intake screen.
type IntakeForm struct {
	CollectionID   uuid.UUID                `json:"collection_id"`
	Status         enums.ServiceOrderStatus `json:"status"`
	RequiredFields []string                 `json:"required_fields"`
}

// Service drives a checkout session from first item to finalized sale.
type Service interface {
	Start(ctx context.Context, input StartInput) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Cancel(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, sessionID uuid.UUID, input AddItemInput) (*Session, error)
	RemoveItem(ctx context.Context, sessionID, collectionID, productID uuid.UUID) (*Session, error)
	SetQuantity(ctx context.Context, sessionID, collectionID, productID uuid.UUID, quantity int) (*Session, error)
	SetDiscount(ctx context.Context, sessionID uuid.UUID, d *discount.Discount) (*Session, error)

	IntakeForm(ctx context.Context, sessionID, collectionID uuid.UUID) (*IntakeForm, error)
	SubmitIntake(ctx context.Context, sessionID, collectionID uuid.UUID, payload serviceorder.IntakePayload) (*Session, error)

	AddPayment(ctx context.Context, sessionID uuid.UUID, method enums.PaymentMethod, amountCents int64) (*Session, error)
	UpdatePayment(ctx context.Context, sessionID uuid.UUID, index int, input UpdatePaymentInput) (*Session, error)
	RemovePayment(ctx context.Context, sessionID uuid.UUID, index int) (*Session, error)
	AuthorizePayments(ctx context.Context, sessionID uuid.UUID) (*Session, error)

	Summary(ctx context.Context, sessionID uuid.UUID) (*Summary, error)
	Finalize(ctx context.Context, sessionID uuid.UUID, actor *outbox.ActorRef) (*models.Sale, error)
}

type service struct {
	store     SessionStore
	products  productCatalog
	stock     stockReader
	clients   clientLookup
	gateways  payment.GatewayRegistry
	finalizer saleFinalizer
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	store SessionStore,
	products productCatalog,
	stock stockReader,
	clientDir clientLookup,
	gateways payment.GatewayRegistry,
	finalizer saleFinalizer,
	logg *logger.Logger,
) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if clientDir == nil {
		return nil, fmt.Errorf("client directory required")
	}
	if len(gateways) == 0 {
		gateways = payment.DefaultGateways()
	}
	if finalizer == nil {
		return nil, fmt.Errorf("sale finalizer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:     store,
		products:  products,
		stock:     stock,
		clients:   clientDir,
		gateways:  gateways,
		finalizer: finalizer,
		logg:      logg,
	}, nil
}

func (s *service) Start(ctx context.Context, input StartInput) (*Session, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.ClientID != nil {
		if _, err := s.clients.FindByID(ctx, *input.ClientID); err != nil {
			return nil, err
		}
	}

	session := NewSession(input.StoreID, input.ClientID)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithStoreID(ctx, input.StoreID.String()), "checkout session started")
	return session, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.store.Find(ctx, id)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Find(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *service) AddItem(ctx context.Context, sessionID uuid.UUID, input AddItemInput) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		product, err := s.products.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		available, _, err := s.stock.ReadQuantity(ctx, session.StoreID, input.ProductID)
		if err != nil {
			return err
		}

		collectionID := uuid.Nil
		if input.CollectionID != nil {
			collectionID = *input.CollectionID
		}
		if collectionID == uuid.Nil {
			collectionID = session.Cart.AddCollection(input.CollectionLabel)
		}

		return session.Cart.AddItem(collectionID, cart.Item{
			ProductID:        product.ID,
			SKU:              product.SKU,
			Name:             product.Name,
			Category:         product.Category,
			UnitPriceCents:   product.UnitPriceCents,
			Quantity:         input.Quantity,
			StockSnapshotQty: available,
		})
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, collectionID, productID uuid.UUID) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		if err := session.Cart.RemoveItem(collectionID, productID); err != nil {
			return err
		}
		// Drop the collection once its last item is gone.
		if coll := session.Cart.Collection(collectionID); coll != nil && len(coll.Items) == 0 {
			return session.Cart.RemoveCollection(collectionID)
		}
		return nil
	})
}

func (s *service) SetQuantity(ctx context.Context, sessionID, collectionID, productID uuid.UUID, quantity int) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		return session.Cart.SetQuantity(collectionID, productID, quantity)
	})
}

func (s *service) SetDiscount(ctx context.Context, sessionID uuid.UUID, d *discount.Discount) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		if d != nil {
			if err := d.Validate(); err != nil {
				return err
			}
		}
		session.Discount = d
		return nil
	})
}

func (s *service) IntakeForm(ctx context.Context, sessionID, collectionID uuid.UUID) (*IntakeForm, error) {
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fields, err := session.Orders.RequiredFields(collectionID)
	if err != nil {
		return nil, err
	}
	return &IntakeForm{
		CollectionID:   collectionID,
		Status:         session.Orders.Status(collectionID),
		RequiredFields: fields,
	}, nil
}

func (s *service) SubmitIntake(ctx context.Context, sessionID, collectionID uuid.UUID, payload serviceorder.IntakePayload) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		return session.Orders.CompleteIntake(collectionID, payload)
	})
}

func (s *service) AddPayment(ctx context.Context, sessionID uuid.UUID, method enums.PaymentMethod, amountCents int64) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		index, err := session.Plan.AddMethod(method)
		if err != nil {
			return err
		}
		if amountCents > 0 {
			return session.Plan.SetAmount(index, amountCents)
		}
		return nil
	})
}

func (s *service) UpdatePayment(ctx context.Context, sessionID uuid.UUID, index int, input UpdatePaymentInput) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		if input.Metadata != nil {
			if err := session.Plan.SetMetadata(index, *input.Metadata); err != nil {
				return err
			}
		}
		if input.AmountCents != nil {
			return session.Plan.SetAmount(index, *input.AmountCents)
		}
		return nil
	})
}

func (s *service) RemovePayment(ctx context.Context, sessionID uuid.UUID, index int) (*Session, error) {
	return s.mutate(ctx, sessionID, func(session *Session) error {
		return session.Plan.RemoveMethod(index)
	})
}

// AuthorizePayments runs every unconfirmed entry through its gateway.
// Confirmations obtained before a partial failure are saved either way.
func (s *service) AuthorizePayments(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.syncSession(session)

	if err := session.Plan.Validate(ctx, s.clients); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment plan invalid")
	}

	authErr := payment.AuthorizeAll(ctx, session.Plan, s.gateways, authorizeTimeout)
	if saveErr := s.store.Save(ctx, session); saveErr != nil {
		return nil, saveErr
	}
	if authErr != nil {
		return nil, authErr
	}
	return session, nil
}

func (s *service) Summary(ctx context.Context, sessionID uuid.UUID) (*Summary, error) {
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.syncSession(session)
	return buildSummary(session), nil
}

// Finalize hands the session to the commit path and discards it on success.
// The session's sale id makes retries idempotent.
func (s *service) Finalize(ctx context.Context, sessionID uuid.UUID, actor *outbox.ActorRef) (*models.Sale, error) {
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.syncSession(session)

	saleDoc, err := s.finalizer.Finalize(ctx, sale.FinalizeInput{
		SaleID:   session.SaleID,
		StoreID:  session.StoreID,
		ClientID: session.ClientID,
		Cart:     session.Cart,
		Discount: session.Discount,
		Resolver: session.Orders,
		Plan:     session.Plan,
		Actor:    actor,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		// The sale is committed; a leftover session only wastes a redis key.
		s.logg.Error(ctx, "deleting finalized checkout session failed", err)
	}
	return saleDoc, nil
}

// mutate is the shared load, transition, sync, save cycle behind every
// session edit.
func (s *service) mutate(ctx context.Context, sessionID uuid.UUID, fn func(*Session) error) (*Session, error) {
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	s.syncSession(session)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// syncSession re-derives the dependent state after any edit: service-order
// statuses follow the cart, and the plan's payable total follows the
// discounted subtotal. When the new payable would fall below what is already
// allocated the plan keeps its old total; the summary reports the
// over-allocation and finalize stays blocked until the cashier trims the
// payments.
func (s *service) syncSession(session *Session) {
	session.Orders.Evaluate(&session.Cart)

	payable, err := discount.Apply(session.Cart.SubtotalCents(), session.Discount)
	if err != nil {
		return
	}
	if err := session.Plan.SetPayable(payable); err != nil {
		return
	}
}

func buildSummary(session *Session) *Summary {
	subtotal := session.Cart.SubtotalCents()
	payable, _ := discount.Apply(subtotal, session.Discount)

	summary := &Summary{
		SessionID:      session.ID,
		SaleID:         session.SaleID,
		SubtotalCents:  subtotal,
		DiscountCents:  subtotal - payable,
		PayableCents:   payable,
		AllocatedCents: session.Plan.AllocatedCents(),
		RemainingCents: session.Plan.RemainingCents(),
	}

	for _, coll := range session.Cart.Collections {
		summary.Collections = append(summary.Collections, CollectionSummary{
			ID:                 coll.ID,
			Label:              coll.Label,
			SubtotalCents:      coll.SubtotalCents(),
			ServiceOrderStatus: session.Orders.Status(coll.ID),
		})
	}

	if session.Cart.IsEmpty() {
		summary.Blockers = append(summary.Blockers, "cart is empty")
	}
	if !session.Orders.CanFinalize() {
		summary.Blockers = append(summary.Blockers, "service order intake incomplete")
	}
	if session.Plan.AllocatedCents() > payable {
		summary.Blockers = append(summary.Blockers, "allocations exceed payable total")
	} else if !session.Plan.IsSettled() {
		summary.Blockers = append(summary.Blockers, "payable total not fully allocated")
	}
	if !session.Cart.IsEmpty() && !payment.FullyAuthorized(session.Plan) {
		summary.Blockers = append(summary.Blockers, "payment authorization pending")
	}

	summary.CanFinalize = len(summary.Blockers) == 0
	return summary
}
