package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harvestlink/harvestlink-backend/api/controllers"
	"github.com/harvestlink/harvestlink-backend/api/middleware"
	"github.com/harvestlink/harvestlink-backend/internal/assignments"
	"github.com/harvestlink/harvestlink-backend/internal/cart"
	"github.com/harvestlink/harvestlink-backend/internal/notifications"
	"github.com/harvestlink/harvestlink-backend/internal/orders"
	"github.com/harvestlink/harvestlink-backend/internal/stock"
	"github.com/harvestlink/harvestlink-backend/pkg/config"
	"github.com/harvestlink/harvestlink-backend/pkg/db"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
	"github.com/harvestlink/harvestlink-backend/pkg/redis"
)

// Deps carries the wired services the router exposes.
type Deps struct {
	Cart          cart.Service
	Orders        orders.Service
	Assignments   assignments.Service
	Notifications notifications.Service
	Stock         stock.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	deps Deps,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Orders, logg))
		r.Post("/payments", controllers.PaymentCapture(deps.Orders, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrderFetch(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(deps.Notifications, false, logg))
			r.Get("/unread", controllers.NotificationList(deps.Notifications, true, logg))
			r.Post("/{id}/read", controllers.NotificationMarkRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(deps.Notifications, logg))
		})

		r.Get("/products/{productID}/availability", controllers.StockAvailability(deps.Stock, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", controllers.AssignmentCreate(deps.Assignments, logg))
			r.Get("/", controllers.AssignmentList(deps.Assignments, logg))
			r.Delete("/{id}", controllers.AssignmentDelete(deps.Assignments, logg))
		})

		r.Get("/drivers/{driverID}/capacity", controllers.DriverCapacity(deps.Assignments, logg))
		r.Patch("/orders/{orderID}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
		r.Post("/products/{productID}/stock", controllers.StockAdjust(deps.Stock, logg))
	})

	return r
}
