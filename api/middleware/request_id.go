package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID ensures every request carries a correlation id, honoring an
// inbound header when the caller supplied one.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := logg.WithRequestID(r.Context(), requestID)
			w.Header().Set(requestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
