package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ruilibao/live-server/auth"
	"github.com/ruilibao/live-server/config"
	"github.com/ruilibao/live-server/metrics"
	"github.com/ruilibao/live-server/server/handlers"
	"github.com/ruilibao/live-server/server/middleware"
	"github.com/ruilibao/live-server/session"
	"github.com/ruilibao/live-server/uploads"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	authn *auth.Authenticator,
	sessions session.Store,
	uploadStore *uploads.Store,
	cfg *config.AppConfig,
	logger *zap.Logger,
) chi.Router {
	// Initialize metrics
	metrics.RegisterMetrics()

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.SessionMiddleware(sessions, cfg.Session.CookieName, logger))

	// Request logging and metrics middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				r.URL.Path,
				http.StatusText(ww.Status()),
			).Inc()

			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method,
				r.URL.Path,
			).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", duration),
				zap.String("remote_addr", r.RemoteAddr))
		})
	})

	// Health check endpoint (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Error("Failed to write health check response", zap.Error(err))
		}
	})

	// Metrics endpoint (no auth required)
	r.Handle("/metrics", promhttp.Handler())

	// Login endpoints share one token bucket on top of the per-username
	// attempt tracker inside the authenticator.
	loginLimiter := rate.NewLimiter(rate.Limit(cfg.Auth.LoginRate), cfg.Auth.LoginBurst)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(loginLimiter, logger))
		r.Post("/login", handlers.FormLogin(authn, sessions, &cfg.Session, logger))
		r.Post("/ajaxlogin", handlers.AjaxLogin(authn, sessions, &cfg.Session, logger))
	})

	r.Get("/", handlers.Index(logger))
	r.Get("/login", handlers.LoginPage(logger))
	r.Get("/index", handlers.LoginPage(logger))
	r.Get("/logout", handlers.Logout(authn, &cfg.Session, logger))

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(logger))
		r.Get("/session", handlers.SessionInfo(logger))
		r.Get(cfg.Upload.PublicPrefix+"/*", handlers.Download(uploadStore, logger))
	})

	logger.Info("HTTP router configured successfully")

	return r
}
