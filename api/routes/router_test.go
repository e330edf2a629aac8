package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/config"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.Issuer = "oticaflow"

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(Dependencies{Config: cfg, Logger: logg})
}

func TestLivenessServedWithoutAuth(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIRoutesRequireBearerToken(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sales/"+uuid.NewString(), nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMetricsRouteAbsentWithoutRegistry(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
