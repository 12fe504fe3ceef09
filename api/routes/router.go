package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trovemarket/trove-backend/api/controllers"
	webhookcontrollers "github.com/trovemarket/trove-backend/api/controllers/webhooks"
	"github.com/trovemarket/trove-backend/api/middleware"
	checkoutsvc "github.com/trovemarket/trove-backend/internal/checkout"
	"github.com/trovemarket/trove-backend/internal/fulfillment"
	"github.com/trovemarket/trove-backend/internal/settlement"
	stripewebhook "github.com/trovemarket/trove-backend/internal/webhooks/stripe"
	"github.com/trovemarket/trove-backend/pkg/config"
	"github.com/trovemarket/trove-backend/pkg/db"
	"github.com/trovemarket/trove-backend/pkg/logger"
	"github.com/trovemarket/trove-backend/pkg/redis"
	"github.com/trovemarket/trove-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	settlementService settlement.Service,
	fulfillmentService fulfillment.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	metricsGatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.Checkout(checkoutService, logg))
			r.Post("/quote", controllers.CheckoutQuote(checkoutService, logg))
			r.Post("/confirm", controllers.ConfirmCheckout(settlementService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(fulfillmentService, logg))
			r.Get("/{orderID}", controllers.OrderDetail(fulfillmentService, logg))
			r.Post("/{orderID}/feedback", controllers.SubmitFeedback(fulfillmentService, logg))
		})

		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Post("/advance", controllers.AdvanceItem(fulfillmentService, logg))
			r.Post("/cancel", controllers.CancelItem(fulfillmentService, logg))
			r.Post("/confirm-delivery", controllers.ConfirmDelivery(fulfillmentService, logg))
			r.Post("/issues", controllers.ReportIssue(fulfillmentService, logg))
			r.Post("/return", controllers.RequestReturn(fulfillmentService, logg))
		})

		r.Get("/seller/items", controllers.ListSellerItems(fulfillmentService, logg))
	})

	return r
}
