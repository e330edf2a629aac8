package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvcampos/oticaflow-backend/api/controllers"
	"github.com/mvcampos/oticaflow-backend/api/middleware"
	"github.com/mvcampos/oticaflow-backend/internal/checkout"
	"github.com/mvcampos/oticaflow-backend/internal/sale"
	"github.com/mvcampos/oticaflow-backend/internal/stores"
	"github.com/mvcampos/oticaflow-backend/pkg/config"
	"github.com/mvcampos/oticaflow-backend/pkg/db"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Checkout checkout.Service
	Sales    sale.Service
	Stores   stores.Service
	Registry *prometheus.Registry
}

// NewRouter assembles the API router.
func NewRouter(deps Dependencies) chi.Router {
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(nil))

	r.Get("/health/live", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(deps.DB, deps.Redis, logg))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(deps.Redis, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, logg))

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Post("/", controllers.StartCheckoutSession(deps.Checkout, logg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", controllers.GetCheckoutSession(deps.Checkout, logg))
				r.Delete("/", controllers.CancelCheckoutSession(deps.Checkout, logg))

				r.Post("/items", controllers.AddCheckoutItem(deps.Checkout, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCheckoutItem(deps.Checkout, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCheckoutItem(deps.Checkout, logg))

				r.Put("/discount", controllers.SetCheckoutDiscount(deps.Checkout, logg))

				r.Get("/collections/{collectionId}/intake", controllers.GetIntakeForm(deps.Checkout, logg))
				r.Post("/collections/{collectionId}/intake", controllers.SubmitIntake(deps.Checkout, logg))

				r.Post("/payments", controllers.AddCheckoutPayment(deps.Checkout, logg))
				r.Patch("/payments/{index}", controllers.UpdateCheckoutPayment(deps.Checkout, logg))
				r.Delete("/payments/{index}", controllers.RemoveCheckoutPayment(deps.Checkout, logg))
				r.Post("/payments/authorize", controllers.AuthorizeCheckoutPayments(deps.Checkout, logg))

				r.With(idempotent).Post("/finalize", controllers.FinalizeCheckout(deps.Checkout, logg))
			})
		})

		r.Route("/sales/{id}", func(r chi.Router) {
			r.Get("/", controllers.GetSale(deps.Sales, logg))
			r.With(idempotent).Post("/void", controllers.VoidSale(deps.Sales, logg))
		})

		r.Route("/stores/{id}", func(r chi.Router) {
			r.Get("/", controllers.GetStore(deps.Stores, logg))
			r.With(middleware.RequireManager(logg)).Put("/manager-pin", controllers.SetManagerPIN(deps.Stores, logg))
		})
	})

	return r
}
