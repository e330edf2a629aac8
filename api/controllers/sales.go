package controllers

import (
	"net/http"

	"github.com/mvcampos/oticaflow-backend/api/responses"
	"github.com/mvcampos/oticaflow-backend/api/validators"
	"github.com/mvcampos/oticaflow-backend/internal/sale"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

type voidSaleRequest struct {
	ManagerPIN string `json:"manager_pin" validate:"required,min=4"`
	Reason     string `json:"reason" validate:"required,min=3"`
}

// GetSale returns a finalized sale document.
func GetSale(svc sale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saleDoc, err := svc.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saleDoc)
	}
}

// VoidSale reverses a completed sale after a manager PIN check.
func VoidSale(svc sale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req voidSaleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saleDoc, err := svc.Void(r.Context(), sale.VoidInput{
			SaleID:     saleID,
			ManagerPIN: req.ManagerPIN,
			Reason:     validators.SanitizeString(req.Reason, 240),
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saleDoc)
	}
}
