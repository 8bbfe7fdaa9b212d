// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package api assembles the bizcore HTTP surface: the global middleware
// chain, the health and metrics endpoints, and the /api/v1/auth routes behind
// bearer authentication and organization scope resolution.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/bizcore/internal/identity/auth"
	"github.com/taibuivan/bizcore/internal/platform/config"
	"github.com/taibuivan/bizcore/internal/platform/constants"
	"github.com/taibuivan/bizcore/internal/platform/middleware"
)

// Server is the bound [http.Server] plus its route tree.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers are the endpoint sets mounted by [Router].
type Handlers struct {
	Liveness  http.HandlerFunc // GET /health
	Readiness http.HandlerFunc // GET /ready
	Metrics   http.Handler     // GET /metrics, skipped when nil
	Auth      *auth.Handler    // /api/v1/auth
}

// NewServer binds [Router] to cfg.ServerPort with the server timeouts.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, resolver middleware.ScopeResolver, h Handlers) *Server {
	r := Router(context, cfg, log, verifier, resolver, h)

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		},
	}
}

// Router builds the route tree without binding a port, so tests can drive it
// through httptest. Cancelling context stops the rate limiter's eviction loop.
func Router(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, resolver middleware.ScopeResolver, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// ClientIP runs first: the logger, the limiter and the login audit all key on it.
	r.Use(middleware.ClientIP(cfg.TrustedProxies))
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Claims and scope are resolved once here; handlers read them from the context.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Authenticate(verifier))
		api.Use(middleware.ResolveScope(resolver))
		api.Mount("/auth", h.Auth.Routes())
	})

	return r
}

// ListenAndServe blocks until the server stops. After Shutdown it returns
// [http.ErrServerClosed].
func (s *Server) ListenAndServe() error {
	s.log.Info("http_server_listening", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for in-flight
// requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
