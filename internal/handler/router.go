package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leadreach/leadreach/internal/middleware"
	"github.com/leadreach/leadreach/internal/view"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Logger  *slog.Logger
	Handler *Handler
	Health  *HealthHandler
	Metrics *MetricsHandler
	Limiter middleware.LoginLimiter

	IsDevelopment      bool
	MaxRequestBodySize int64
	LoginPerMinute     int
	LoginBurst         int
	TrustProxy         bool
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}

	// Probes and assets carry no session.
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}
	r.Handle("/static/*", view.Static())

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(h.sessions, cfg.Logger))
		r.Use(middleware.CSRF(cfg.Logger))

		r.Get("/", h.Index)
		r.Get("/login", h.LoginForm)
		r.With(middleware.RateLimitLogin(middleware.RateLimitConfig{
			Logger:     cfg.Logger,
			Limiter:    cfg.Limiter,
			PerMinute:  cfg.LoginPerMinute,
			Burst:      cfg.LoginBurst,
			TrustProxy: cfg.TrustProxy,
			OnLimited:  h.loginRateLimited,
		})).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Post("/logout", h.Logout)
			r.Get("/dashboard", h.Dashboard)
			r.Post("/dashboard/refresh", h.Refresh)
			r.Get("/discover", h.DiscoverForm)
			r.Post("/discover", h.Discover)
			r.Get("/group/{id}", h.Group)
			r.Get("/group/{id}/export.csv", h.ExportCSV)
		})

		// Registered inside the group so the 404 page sees the session.
		r.NotFound(h.NotFound)
	})

	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
