package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorbetero/sorbetero-backend/api/controllers"
	"github.com/sorbetero/sorbetero-backend/api/middleware"
	"github.com/sorbetero/sorbetero-backend/internal/drums"
	"github.com/sorbetero/sorbetero-backend/internal/flavors"
	"github.com/sorbetero/sorbetero-backend/internal/orders"
	subsvc "github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	"github.com/sorbetero/sorbetero-backend/pkg/config"
	"github.com/sorbetero/sorbetero-backend/pkg/db"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
	"github.com/sorbetero/sorbetero-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gate *middleware.LimitGate,
	subscriptionsService subsvc.Service,
	flavorsService flavors.Service,
	drumsService drums.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(dbP, redisClient)))
	})

	// Customer-facing order booking. The vendor comes from the request body;
	// a per-IP throttle and the monthly allowance gate run before the handler.
	var limiterStore middleware.RateLimiterStore
	if redisClient != nil {
		limiterStore = redisClient
	}
	orderPolicy := middleware.NewRateLimitPolicy("orders", cfg.RateLimit.OrderWindow, cfg.RateLimit.OrderLimit)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.With(
			middleware.RateLimit(orderPolicy, limiterStore, logg),
			gate.OrderLimit(),
		).Post("/", controllers.OrderCreate(ordersService, logg))
	})

	r.Route("/api/v1/vendor", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.ActorRoleVendor), logg))

		var idempotencyStore middleware.IdempotencyStore
		if redisClient != nil {
			idempotencyStore = redisClient
		}

		r.Get("/subscription", controllers.SubscriptionStatus(subscriptionsService, logg))
		r.With(middleware.Idempotency(idempotencyStore, logg)).
			Post("/subscription/upgrade", controllers.SubscriptionUpgrade(subscriptionsService, logg))

		r.Route("/flavors", func(r chi.Router) {
			r.Get("/", controllers.FlavorList(flavorsService, logg))
			r.Post("/", controllers.FlavorCreate(flavorsService, logg))
			r.With(gate.FlavorLimit()).Post("/{flavorId}/publish", controllers.FlavorPublish(flavorsService, logg))
			r.Post("/{flavorId}/unpublish", controllers.FlavorUnpublish(flavorsService, logg))
		})

		r.Route("/drums", func(r chi.Router) {
			r.Get("/", controllers.DrumPricingList(drumsService, logg))
			r.With(gate.DrumLimit()).Put("/stock", controllers.DrumStockUpdate(drumsService, logg))
		})

		r.Get("/orders", controllers.OrderList(ordersService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), logg))

		r.Post("/subscriptions/sweep", controllers.AdminSweepExpired(subscriptionsService, logg))
	})

	return r
}

func readinessDeps(dbP db.Pinger, redisClient *redis.Client) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["database"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	return deps
}
