package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mvcampos/oticaflow-backend/api/responses"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

type idempotencyRule struct {
	method  string
	pattern string
	ttl     time.Duration
}

// Finalize and void are the money-moving operations, so their replay window
// is a full week. Other mutating checkout routes are naturally idempotent
// per session and do not need a key.
var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, pattern: "/api/v1/checkout/sessions/{id}/finalize", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, pattern: "/api/v1/sales/{id}/void", ttl: criticalIdempotencyTTL},
}

type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type"`
	RequestHash string `json:"request_hash"`
}

type responseCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *responseCapture) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	c.buf.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotency stores the first response for a given key and replays it for
// retries carrying the same key and body.
func Idempotency(store redis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := matchRule(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header is required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scope := idempotencyScope(r)
			storageKey := store.IdempotencyKey(scope, key)
			requestHash := hashRequest(body)

			if record, found := lookupRecord(r.Context(), store, storageKey); found {
				if record.RequestHash != requestHash {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
					return
				}
				replayRecord(w, record)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.status >= http.StatusInternalServerError {
				return
			}

			record := idempotencyRecord{
				Status:      capture.status,
				Body:        base64.StdEncoding.EncodeToString(capture.buf.Bytes()),
				ContentType: capture.Header().Get("Content-Type"),
				RequestHash: requestHash,
			}
			encoded, err := json.Marshal(record)
			if err != nil {
				logg.Error(r.Context(), "idempotency.encode_failed", err)
				return
			}
			if _, err := store.SetNX(r.Context(), storageKey, string(encoded), rule.ttl); err != nil {
				logg.Error(r.Context(), "idempotency.store_failed", err)
			}
		})
	}
}

func matchRule(r *http.Request) (idempotencyRule, bool) {
	routeCtx := chi.RouteContext(r.Context())
	if routeCtx == nil {
		return idempotencyRule{}, false
	}
	pattern := routeCtx.RoutePattern()
	for _, rule := range idempotencyRules {
		if rule.method == r.Method && rule.pattern == pattern {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

func idempotencyScope(r *http.Request) string {
	parts := []string{
		UserIDFromContext(r.Context()),
		StoreIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}
	return strings.Join(parts, "|")
}

func hashRequest(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func lookupRecord(ctx context.Context, store redis.IdempotencyStore, key string) (idempotencyRecord, bool) {
	raw, err := store.Get(ctx, key)
	if err != nil || raw == "" {
		return idempotencyRecord{}, false
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return idempotencyRecord{}, false
	}
	return record, true
}

func replayRecord(w http.ResponseWriter, record idempotencyRecord) {
	decoded, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		decoded = nil
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.WriteHeader(record.Status)
	w.Write(decoded)
}
