package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/pipeline"
	"github.com/dgallion1/longform/internal/store"
	"github.com/dgallion1/longform/internal/vault"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// History is the read side of the export history. *store.Store implements it.
type History interface {
	Get(ctx context.Context, id string) (store.Record, error)
	List(ctx context.Context, root string, limit int) ([]store.Record, error)
}

// Server is the HTTP API server for longform.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	history      History
	vault        vault.Vault
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. history may be nil,
// in which case the history endpoints answer 503.
func NewServer(orch *pipeline.Orchestrator, history History, v vault.Vault, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		history:      history,
		vault:        v,
		log:          log,
		cfg:          cfg,
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

	// Authenticated endpoints. An empty API key disables auth for local use.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/export", s.handleExport)
		r.Post("/api/export/batch", s.handleBatchExport)
		r.Get("/api/export/{jobID}/status", s.handleExportStatus)
		r.Post("/api/render", s.handleRender)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/exports", s.handleListExports)
		r.Get("/api/exports/{id}", s.handleGetExport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
