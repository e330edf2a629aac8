package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/internal/sale"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/types"
)

type stubSaleService struct {
	sale *models.Sale
	err  error

	voidInput *sale.VoidInput
}

func (s *stubSaleService) Finalize(ctx context.Context, input sale.FinalizeInput) (*models.Sale, error) {
	return s.sale, s.err
}

func (s *stubSaleService) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return s.sale, s.err
}

func (s *stubSaleService) Void(ctx context.Context, input sale.VoidInput) (*models.Sale, error) {
	s.voidInput = &input
	return s.sale, s.err
}

var _ sale.Service = (*stubSaleService)(nil)

func newSalesRouter(svc sale.Service) chi.Router {
	logg := testLogger()
	r := chi.NewRouter()
	r.Route("/sales/{id}", func(r chi.Router) {
		r.Get("/", GetSale(svc, logg))
		r.Post("/void", VoidSale(svc, logg))
	})
	return r
}

func TestGetSaleNotFound(t *testing.T) {
	svc := &stubSaleService{err: pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")}
	router := newSalesRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/sales/"+uuid.NewString(), nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 but got %d", w.Code)
	}
}

func TestGetSaleRejectsMalformedID(t *testing.T) {
	svc := &stubSaleService{sale: &models.Sale{ID: uuid.New()}}
	router := newSalesRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/sales/not-a-uuid", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 but got %d", w.Code)
	}
}

func TestVoidSalePassesPINAndActor(t *testing.T) {
	saleID := uuid.New()
	svc := &stubSaleService{sale: &models.Sale{ID: saleID}}
	router := newSalesRouter(svc)

	body := []byte(`{"manager_pin":"4321","reason":"cliente desistiu"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/sales/"+saleID.String()+"/void", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d: %s", w.Code, w.Body.String())
	}
	if svc.voidInput == nil {
		t.Fatal("void was not invoked")
	}
	if svc.voidInput.SaleID != saleID {
		t.Fatalf("unexpected sale id %s", svc.voidInput.SaleID)
	}
	if svc.voidInput.ManagerPIN != "4321" || svc.voidInput.Reason != "cliente desistiu" {
		t.Fatalf("unexpected input %+v", svc.voidInput)
	}
	if svc.voidInput.Actor == nil || svc.voidInput.Actor.Role != "cashier" {
		t.Fatalf("actor not propagated: %+v", svc.voidInput.Actor)
	}
}

func TestVoidSaleValidatesBody(t *testing.T) {
	svc := &stubSaleService{sale: &models.Sale{ID: uuid.New()}}
	router := newSalesRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/sales/"+uuid.NewString()+"/void", []byte(`{"manager_pin":"12"}`)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 but got %d", w.Code)
	}
	if svc.voidInput != nil {
		t.Fatal("void should not run on invalid payload")
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestVoidSaleForbiddenOnWrongPIN(t *testing.T) {
	svc := &stubSaleService{err: pkgerrors.New(pkgerrors.CodeForbidden, "manager pin rejected")}
	router := newSalesRouter(svc)

	body := []byte(`{"manager_pin":"9999","reason":"typo"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/sales/"+uuid.NewString()+"/void", body))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 but got %d", w.Code)
	}
}
