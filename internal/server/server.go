package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/kazz187/agentsync/internal/config"
	"github.com/kazz187/agentsync/internal/migration"
	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/registry"
	"github.com/kazz187/agentsync/pkg/cerr"
	"github.com/kazz187/agentsync/pkg/clog"
)

type Syncer interface {
	Sync(ctx context.Context, opts reconcile.SyncOptions) (*reconcile.Plan, *reconcile.Summary, error)
}

type Server struct {
	mu         sync.Mutex
	server     *http.Server
	closed     bool
	env        *config.HTTPEnv
	syncer     Syncer
	registry   *registry.Registry
	migrations *migration.Table
	metrics    http.Handler
}

func NewServer(
	env *config.HTTPEnv,
	syncer Syncer,
	reg *registry.Registry,
	migrations *migration.Table,
	metrics http.Handler,
) *Server {
	if migrations == nil {
		migrations = migration.Default
	}
	return &Server{
		env:        env,
		syncer:     syncer,
		registry:   reg,
		migrations: migrations,
		metrics:    metrics,
	}
}

// Handler returns the full handler chain including CORS and API key checks.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/agents", s.listAgents)
		r.Post("/agents/{id}/enable", s.setEnabled(true))
		r.Post("/agents/{id}/disable", s.setEnabled(false))
		r.Get("/deprecated", s.listDeprecated)
		r.Get("/plan", s.plan)
		r.Post("/sync", s.sync)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.WriteError(r.Context(), w, cerr.NewError(cerr.NotFound, "not found", nil))
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(clog.SlogChiMiddleware(clog.WithChiFilter(accessLogged))(s.apiKeyMiddleware(mux)))
}

// accessLogged keeps health checks and metric scrapes out of the access log.
func accessLogged(r *http.Request) bool {
	return r.URL.Path != "/health" && r.URL.Path != "/metrics"
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.server = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.closed = true
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// apiKeyMiddleware is a no-op when no key is configured.
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.env.APIKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if apiKey != s.env.APIKey {
			cerr.WriteError(r.Context(), w, cerr.NewError(cerr.Unauthenticated, "unauthorized", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}
