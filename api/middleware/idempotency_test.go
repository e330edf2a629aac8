package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mvcampos/oticaflow-backend/api/responses"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "of:idempotency:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func newIdempotencyRouter(store *memoryIdempotencyStore, hits *int) chi.Router {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.With(Idempotency(store, logg)).Post("/checkout/sessions/{id}/finalize", func(w http.ResponseWriter, req *http.Request) {
			*hits++
			responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"sale_id": "fixed"})
		})
		r.Post("/checkout/sessions", func(w http.ResponseWriter, req *http.Request) {
			*hits++
			responses.WriteSuccess(w, map[string]string{"status": "ok"})
		})
	})
	return r
}

func finalizeRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/3f1a2b1c-0000-0000-0000-000000000000/finalize", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	ctx := WithUserID(req.Context(), "user-1")
	ctx = WithStoreID(ctx, "store-1")
	return req.WithContext(ctx)
}

func TestIdempotencyRequiresKeyOnCriticalRoutes(t *testing.T) {
	hits := 0
	router := newIdempotencyRouter(newMemoryIdempotencyStore(), &hits)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, finalizeRequest("", "{}"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 but got %d", w.Code)
	}
	if hits != 0 {
		t.Fatal("handler must not run without a key")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	hits := 0
	store := newMemoryIdempotencyStore()
	router := newIdempotencyRouter(store, &hits)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, finalizeRequest("key-1", "{}"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 but got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, finalizeRequest("key-1", "{}"))
	if second.Code != http.StatusCreated {
		t.Fatalf("replay should mirror the stored status, got %d", second.Code)
	}
	if hits != 1 {
		t.Fatalf("handler ran %d times, want 1", hits)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	hits := 0
	store := newMemoryIdempotencyStore()
	router := newIdempotencyRouter(store, &hits)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, finalizeRequest("key-2", `{"a":1}`))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 but got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, finalizeRequest("key-2", `{"a":2}`))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 on hash mismatch but got %d", second.Code)
	}
	if hits != 1 {
		t.Fatalf("handler ran %d times, want 1", hits)
	}
}

func TestIdempotencyIgnoresUnmatchedRoutes(t *testing.T) {
	hits := 0
	router := newIdempotencyRouter(newMemoryIdempotencyStore(), &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if hits != 1 {
		t.Fatalf("handler ran %d times, want 1", hits)
	}
}
