package controllers

import (
	"net/http"

	"github.com/mvcampos/oticaflow-backend/api/responses"
	"github.com/mvcampos/oticaflow-backend/api/validators"
	"github.com/mvcampos/oticaflow-backend/internal/stores"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

type setManagerPINRequest struct {
	PIN string `json:"pin" validate:"required,min=4,max=8"`
}

// GetStore returns one store from the registry.
func GetStore(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Get(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// SetManagerPIN rotates the store's void-approval PIN.
func SetManagerPIN(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setManagerPINRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetManagerPIN(r.Context(), storeID, req.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
