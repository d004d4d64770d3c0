package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/finanzas-be/internal/auth"
	"github.com/hongminglow/finanzas-be/internal/config"
	"github.com/hongminglow/finanzas-be/internal/http/handlers"
	"github.com/hongminglow/finanzas-be/internal/middleware"
	"github.com/hongminglow/finanzas-be/internal/observability"
	"github.com/hongminglow/finanzas-be/internal/session"
	"github.com/hongminglow/finanzas-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, users storage.UserStore, sessions *session.Store, log *slog.Logger, reg *prometheus.Registry) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, users, sessions, log, reg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// NewHandler builds the routed handler chain; split out so tests can mount it
// on httptest without binding a port.
func NewHandler(cfg config.Config, users storage.UserStore, sessions *session.Store, log *slog.Logger, reg *prometheus.Registry) http.Handler {
	metrics := observability.NewMetrics(reg)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	svc := auth.NewService(users, sessions, log, metrics)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(svc, tokens, log).Register(mux)
	handlers.NewRolesHandler(users, tokens, log).Register(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	routeOf := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, metrics.Middleware(routeOf, mux)))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
