package router

import (
	"net/http"

	"github.com/dinerhq/pos-api/internal/config"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/handler"
	mw "github.com/dinerhq/pos-api/internal/middleware"
	"github.com/dinerhq/pos-api/internal/service"
	"github.com/dinerhq/pos-api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, branch scoping, and role-based middleware as needed.
func New(cfg *config.Config, orders *service.OrderService, shifts *service.ShiftService, hub *ws.Hub, log *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/branches/{bid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	orderHandler := handler.NewOrderHandler(orders, log)
	paymentHandler := handler.NewPaymentHandler(orders, log)
	shiftHandler := handler.NewShiftHandler(shifts, log)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/branches/{bid}", func(r chi.Router) {
			r.Use(mw.RequireBranch)

			r.Route("/orders", func(r chi.Router) {
				orderHandler.RegisterRoutes(r)

				// Payments (nested under orders)
				r.Route("/{id}/payments", func(r chi.Router) {
					r.Use(mw.RequireRole(enum.RoleCashier, enum.RoleManager, enum.RoleOwner))
					paymentHandler.RegisterRoutes(r)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleCashier, enum.RoleManager, enum.RoleOwner))
				r.Route("/shifts", shiftHandler.RegisterRoutes)
				paymentHandler.RegisterLedgerRoutes(r)
			})
		})
	})

	log.Info("router initialized")
	return r
}
