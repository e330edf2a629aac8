package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvcampos/oticaflow-backend/api/middleware"
	"github.com/mvcampos/oticaflow-backend/api/responses"
	"github.com/mvcampos/oticaflow-backend/api/validators"
	"github.com/mvcampos/oticaflow-backend/internal/checkout"
	"github.com/mvcampos/oticaflow-backend/internal/discount"
	"github.com/mvcampos/oticaflow-backend/internal/payment"
	"github.com/mvcampos/oticaflow-backend/internal/serviceorder"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
)

type startSessionRequest struct {
	ClientID *uuid.UUID `json:"client_id"`
}

type addItemRequest struct {
	CollectionID    *uuid.UUID `json:"collection_id"`
	CollectionLabel string     `json:"collection_label"`
	ProductID       uuid.UUID  `json:"product_id" validate:"required"`
	Quantity        int        `json:"quantity" validate:"required,gt=0"`
}

type updateItemRequest struct {
	CollectionID uuid.UUID `json:"collection_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"gte=0"`
}

type setDiscountRequest struct {
	Type        string          `json:"type"`
	Percent     decimal.Decimal `json:"percent"`
	AmountCents int64           `json:"amount_cents"`
}

type addPaymentRequest struct {
	Method      string `json:"method" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
}

type updatePaymentRequest struct {
	AmountCents *int64            `json:"amount_cents"`
	Metadata    *payment.Metadata `json:"metadata"`
}

type sessionResponse struct {
	Session *checkout.Session `json:"session"`
	Summary *checkout.Summary `json:"summary"`
}

// StartCheckoutSession opens a session scoped to the caller's store.
func StartCheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startSessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Start(r.Context(), checkout.StartInput{
			StoreID:  storeID,
			ClientID: req.ClientID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// GetCheckoutSession returns the session document with its derived summary.
func GetCheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{Session: session, Summary: summary})
	}
}

// CancelCheckoutSession discards an open session.
func CancelCheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Cancel(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// AddCheckoutItem appends a product to a collection, creating the collection
// when none is referenced.
func AddCheckoutItem(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.AddItem(r.Context(), sessionID, checkout.AddItemInput{
			CollectionID:    req.CollectionID,
			CollectionLabel: validators.SanitizeString(req.CollectionLabel, 80),
			ProductID:       req.ProductID,
			Quantity:        req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// UpdateCheckoutItem changes the quantity of an item already in the cart.
// Quantity zero removes the line.
func UpdateCheckoutItem(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var session *checkout.Session
		if req.Quantity == 0 {
			session, err = svc.RemoveItem(r.Context(), sessionID, req.CollectionID, productID)
		} else {
			session, err = svc.SetQuantity(r.Context(), sessionID, req.CollectionID, productID, req.Quantity)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// RemoveCheckoutItem drops an item. The owning collection is identified via
// the collection_id query parameter.
func RemoveCheckoutItem(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		collectionID, err := uuid.Parse(r.URL.Query().Get("collection_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "collection_id query parameter must be a uuid"))
			return
		}

		session, err := svc.RemoveItem(r.Context(), sessionID, collectionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// SetCheckoutDiscount replaces the sale-level discount. An empty type clears
// it.
func SetCheckoutDiscount(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var d *discount.Discount
		if req.Type != "" {
			discountType, err := enums.ParseDiscountType(req.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown discount type"))
				return
			}
			d = &discount.Discount{
				Type:        discountType,
				Percent:     req.Percent,
				AmountCents: req.AmountCents,
			}
		}

		session, err := svc.SetDiscount(r.Context(), sessionID, d)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// GetIntakeForm returns the prescription fields still required for a
// collection's service order.
func GetIntakeForm(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		collectionID, err := uuidParam(r, "collectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form, err := svc.IntakeForm(r.Context(), sessionID, collectionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, form)
	}
}

// SubmitIntake records the prescription for a collection's service order.
func SubmitIntake(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		collectionID, err := uuidParam(r, "collectionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload serviceorder.IntakePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SubmitIntake(r.Context(), sessionID, collectionID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// AddCheckoutPayment appends a payment entry, optionally with an initial
// amount.
func AddCheckoutPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}

		session, err := svc.AddPayment(r.Context(), sessionID, method, req.AmountCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// UpdateCheckoutPayment patches one payment entry's amount or metadata.
func UpdateCheckoutPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		idx, err := indexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.UpdatePayment(r.Context(), sessionID, idx, checkout.UpdatePaymentInput{
			AmountCents: req.AmountCents,
			Metadata:    req.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// RemoveCheckoutPayment drops one payment entry.
func RemoveCheckoutPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		idx, err := indexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.RemovePayment(r.Context(), sessionID, idx)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// AuthorizeCheckoutPayments runs pending entries through their gateways.
func AuthorizeCheckoutPayments(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.AuthorizePayments(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// FinalizeCheckout commits the session into a sale.
func FinalizeCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saleDoc, err := svc.Finalize(r.Context(), sessionID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, saleDoc)
	}
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a uuid").
			WithDetails(map[string]string{"param": name})
	}
	return id, nil
}

func indexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "payment index must be a non-negative integer")
	}
	return idx, nil
}

func storeFromContext(r *http.Request) (uuid.UUID, error) {
	storeID, err := uuid.Parse(middleware.StoreIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "store context missing from token")
	}
	return storeID, nil
}

func actorFromContext(r *http.Request) (*outbox.ActorRef, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing from token")
	}
	actor := &outbox.ActorRef{
		UserID: userID,
		Role:   middleware.RoleFromContext(r.Context()),
	}
	if storeID, err := uuid.Parse(middleware.StoreIDFromContext(r.Context())); err == nil {
		actor.StoreID = &storeID
	}
	return actor, nil
}
