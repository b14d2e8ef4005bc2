package router

import (
	"net/http"

	"flash-sale-api/internal/handler"
	"flash-sale-api/internal/middleware"
	"flash-sale-api/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	HealthHandler   *handler.HealthHandler
	AuthHandler     *handler.AuthHandler
	ProductHandler  *handler.ProductHandler
	SaleHandler     *handler.SaleHandler
	PurchaseHandler *handler.PurchaseHandler
	AdminHandler    *handler.AdminHandler

	AuthMiddleware      func(http.Handler) http.Handler
	PurchaseRateLimiter func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.HealthHandler != nil {
		r.Get("/api/status", cfg.HealthHandler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.HealthHandler != nil {
			r.Get("/health", cfg.HealthHandler.Health)
			r.Get("/ready", cfg.HealthHandler.Ready)
		}

		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		}

		// Catalog and sale reads are public.
		if cfg.ProductHandler != nil {
			r.Get("/products", cfg.ProductHandler.List)
			r.Get("/products/{id}", cfg.ProductHandler.Get)
		}
		if cfg.SaleHandler != nil {
			r.Get("/sales", cfg.SaleHandler.List)
			r.Get("/sales/active", cfg.SaleHandler.GetActive)
			r.Get("/sales/{id}", cfg.SaleHandler.Get)
		}
		if cfg.PurchaseHandler != nil {
			r.Get("/sales/{id}/purchases", cfg.PurchaseHandler.BySale)
			r.Get("/sales/{id}/leaderboard", cfg.PurchaseHandler.Leaderboard)
		}

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}

			if cfg.AuthHandler != nil {
				r.Post("/auth/logout", cfg.AuthHandler.Logout)
				r.Get("/auth/me", cfg.AuthHandler.Me)
			}

			if cfg.PurchaseHandler != nil {
				r.Group(func(r chi.Router) {
					if cfg.PurchaseRateLimiter != nil {
						r.Use(cfg.PurchaseRateLimiter)
					}
					r.Post("/purchases", cfg.PurchaseHandler.Create)
				})
				r.Get("/purchases/history", cfg.PurchaseHandler.History)
			}

			// ADMIN routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))

				if cfg.ProductHandler != nil {
					r.Post("/products", cfg.ProductHandler.Create)
					r.Patch("/products/{id}", cfg.ProductHandler.Update)
					r.Delete("/products/{id}", cfg.ProductHandler.Delete)
				}
				if cfg.SaleHandler != nil {
					r.Post("/sales", cfg.SaleHandler.Create)
					r.Patch("/sales/{id}", cfg.SaleHandler.Update)
					r.Post("/sales/{id}/activate", cfg.SaleHandler.Activate)
					r.Post("/sales/{id}/deactivate", cfg.SaleHandler.Deactivate)
					r.Post("/sales/{id}/reset", cfg.SaleHandler.Reset)
				}
				if cfg.PurchaseHandler != nil {
					r.Get("/users/{userId}/purchases", cfg.PurchaseHandler.UserHistory)
				}
				if cfg.AdminHandler != nil {
					r.Get("/admin/stats", cfg.AdminHandler.Stats)
				}
			})
		})
	})

	return r
}
