package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digishelf/digishelf-backend/api/controllers"
	webhookcontrollers "github.com/digishelf/digishelf-backend/api/controllers/webhooks"
	"github.com/digishelf/digishelf-backend/api/middleware"
	checkoutsvc "github.com/digishelf/digishelf-backend/internal/checkout"
	"github.com/digishelf/digishelf-backend/internal/ledger"
	"github.com/digishelf/digishelf-backend/internal/notifications"
	"github.com/digishelf/digishelf-backend/internal/orders"
	paymentwebhook "github.com/digishelf/digishelf-backend/internal/webhooks/payment"
	"github.com/digishelf/digishelf-backend/internal/withdrawals"
	"github.com/digishelf/digishelf-backend/pkg/config"
	"github.com/digishelf/digishelf-backend/pkg/logger"
)

// Dependencies carries everything cmd/api wires into the HTTP surface.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     controllers.Pinger
	RedisPinger  controllers.Pinger
	Checkout     checkoutsvc.Service
	OrdersRepo   orders.Repository
	LedgerRepo   ledger.Repository
	Withdrawals  withdrawals.Service
	Notifier     notifications.Service
	Webhook      *paymentwebhook.Service
	WebhookGuard *paymentwebhook.IdempotencyGuard
	Metrics      prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DBPinger,
			"redis":    deps.RedisPinger,
		}))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", webhookcontrollers.PaymentWebhook(deps.Webhook, cfg.Webhook.SigningSecret, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.OrdersRepo, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.OrdersRepo, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifier, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifier, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Get("/balance", controllers.VendorBalance(deps.Withdrawals, logg))
			r.Get("/ledger", controllers.VendorLedger(deps.LedgerRepo, logg))
			r.Route("/withdrawals", func(r chi.Router) {
				r.Post("/", controllers.RequestWithdrawal(deps.Withdrawals, logg))
				r.Get("/", controllers.ListWithdrawals(deps.Withdrawals, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Post("/withdrawals/{withdrawalId}/decision", controllers.DecideWithdrawal(deps.Withdrawals, logg))
			r.Get("/platform-revenue", controllers.PlatformRevenue(deps.LedgerRepo, logg))
		})
	})

	return r
}
