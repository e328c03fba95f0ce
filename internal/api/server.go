package api

import (
	"log/slog"
	"net/http"

	"github.com/docuscout/docuscout/internal/config"
	"github.com/docuscout/docuscout/internal/pipeline"
	"github.com/docuscout/docuscout/internal/research"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server: a thin wrapper over the pipeline's entry
// points.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	stats  *research.LookupStats
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(runner *pipeline.Runner, stats *research.LookupStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		runner: runner,
		stats:  stats,
		log:    log,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/runs", s.handleStartIngest)
		r.Post("/api/audits", s.handleStartAudit)
		r.Get("/api/runs/{runID}", s.handleRunStatus)

		r.Get("/api/playbook", s.handleGetPlaybook)
		r.Get("/api/report", s.handleGetReport)
		r.Get("/api/stats/lookup", s.handleLookupStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
