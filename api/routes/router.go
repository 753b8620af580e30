package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shoptab-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/shoptab-backend/api/controllers/cart"
	creditcontrollers "github.com/angelmondragon/shoptab-backend/api/controllers/credit"
	ordercontrollers "github.com/angelmondragon/shoptab-backend/api/controllers/orders"
	"github.com/angelmondragon/shoptab-backend/api/middleware"
	"github.com/angelmondragon/shoptab-backend/internal/cart"
	"github.com/angelmondragon/shoptab-backend/internal/credit"
	"github.com/angelmondragon/shoptab-backend/internal/notifications"
	"github.com/angelmondragon/shoptab-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/shoptab-backend/pkg/auth"
	"github.com/angelmondragon/shoptab-backend/pkg/auth/session"
	"github.com/angelmondragon/shoptab-backend/pkg/config"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
	"github.com/angelmondragon/shoptab-backend/pkg/redis"
)

// Params carries everything the HTTP surface needs. Redis may be nil in
// tests; idempotency and the order throttle are then skipped.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *redis.Client
	Tokens        *pkgAuth.Signer
	Sessions      session.AccessSessionChecker
	Carts         cart.Service
	Orders        orders.Service
	Credit        credit.Service
	Notifications notifications.Service
	Metrics       http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["db"] = p.DB
	}
	var (
		passthrough   = func(next http.Handler) http.Handler { return next }
		idempotent    = passthrough
		critical      = passthrough
		orderThrottle = passthrough
	)
	if p.Redis != nil {
		deps["redis"] = p.Redis
		idempotent = middleware.Idempotency(p.Redis, middleware.StandardReplayWindow, logg)
		critical = middleware.Idempotency(p.Redis, middleware.CriticalReplayWindow, logg)
		orderThrottle = middleware.Throttle(middleware.ThrottlePolicy{
			Name:   "order_create",
			Limit:  cfg.RateLimit.OrderCreateLimit,
			Window: cfg.RateLimit.OrderCreateWindow,
		}, p.Redis, logg)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if p.Metrics != nil {
		r.Handle("/metrics", p.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Tokens, p.Sessions, logg))
		r.Use(middleware.RateLimit(limiter, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.List(p.Carts, logg))
			r.Get("/stats", cartcontrollers.Stats(p.Carts, logg))
			r.Get("/shop/{shopId}", cartcontrollers.GetByShop(p.Carts, logg))
			r.Post("/items", cartcontrollers.AddItem(p.Carts, logg))
			r.Patch("/items/{itemId}", cartcontrollers.UpdateItem(p.Carts, logg))
			r.Delete("/items/{itemId}", cartcontrollers.RemoveItem(p.Carts, logg))
			r.Get("/{cartId}", cartcontrollers.Get(p.Carts, logg))
			r.Patch("/{cartId}", cartcontrollers.UpdateCart(p.Carts, logg))
			r.Post("/{cartId}/refresh", cartcontrollers.Refresh(p.Carts, logg))
			r.Post("/{cartId}/clear", cartcontrollers.Clear(p.Carts, logg))
			r.Post("/{cartId}/abandon", cartcontrollers.Abandon(p.Carts, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(orderThrottle, critical).Post("/", ordercontrollers.Create(p.Orders, logg))
			r.Get("/", ordercontrollers.List(p.Orders, logg))
			r.Get("/summary", ordercontrollers.Summary(p.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Get(p.Orders, logg))
				r.Patch("/status", ordercontrollers.UpdateStatus(p.Orders, logg))
				r.Patch("/payment-method", ordercontrollers.UpdatePaymentMethod(p.Orders, logg))
				r.Patch("/fees", ordercontrollers.UpdateFees(p.Orders, logg))
				r.With(idempotent).Post("/items", ordercontrollers.AddItem(p.Orders, logg))
				r.Patch("/items/{itemId}", ordercontrollers.UpdateItem(p.Orders, logg))
				r.With(critical).Post("/cancel", ordercontrollers.Cancel(p.Orders, logg))
				r.With(middleware.RequireRole(logg, enums.RoleAdmin), critical).Post("/refund", ordercontrollers.Refund(p.Orders, logg))
			})
		})

		r.Route("/shops/{shopId}/credit", func(r chi.Router) {
			r.Get("/summary", creditcontrollers.Summary(p.Credit, logg))
			r.Get("/transactions", creditcontrollers.ListTransactions(p.Credit, logg))
			r.Route("/accounts", func(r chi.Router) {
				r.With(idempotent).Post("/", creditcontrollers.CreateAccount(p.Credit, logg))
				r.Get("/", creditcontrollers.ListAccounts(p.Credit, logg))
				r.Get("/phone/{phone}", creditcontrollers.GetAccountByPhone(p.Credit, logg))
				r.Route("/{accountId}", func(r chi.Router) {
					r.Get("/", creditcontrollers.GetAccount(p.Credit, logg))
					r.Patch("/", creditcontrollers.UpdateAccount(p.Credit, logg))
					r.With(critical).Post("/credit", creditcontrollers.AddCredit(p.Credit, logg))
					r.With(critical).Post("/payment", creditcontrollers.AddPayment(p.Credit, logg))
					r.Get("/verify", creditcontrollers.Verify(p.Credit, logg))
				})
			})
		})

		r.Route("/credit/me", func(r chi.Router) {
			r.Get("/accounts", creditcontrollers.MyAccounts(p.Credit, logg))
			r.Get("/transactions", creditcontrollers.MyTransactions(p.Credit, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
		})
	})

	return r
}
