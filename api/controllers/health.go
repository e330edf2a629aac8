package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mvcampos/oticaflow-backend/api/responses"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady probes the datastore and cache before declaring the instance
// ready for traffic.
func HealthReady(database, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		healthy := true

		if err := database.Ping(ctx); err != nil {
			checks["database"] = "unreachable"
			healthy = false
			logg.Error(ctx, "readiness database probe failed", err)
		}
		if err := cache.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
			logg.Error(ctx, "readiness redis probe failed", err)
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
