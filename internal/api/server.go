package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/dgallion1/customtrans/internal/config"
	"github.com/dgallion1/customtrans/internal/fetch"
	"github.com/dgallion1/customtrans/internal/glossstore"
	"github.com/dgallion1/customtrans/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server for customtrans.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        *fetch.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, stats *fetch.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		stats:        stats,
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
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/works", s.handleListWorks)
		r.Post("/works", s.handleAddWork)
		r.Get("/works/{workID}", s.handleGetWork)
		r.Patch("/works/{workID}", s.handleEditWork)
		r.Put("/works/{workID}/current", s.handleMarkRead)
		r.Put("/works/{workID}/bookmarks/{n}", s.handleBookmark(true))
		r.Delete("/works/{workID}/bookmarks/{n}", s.handleBookmark(false))
		r.Get("/works/{workID}/chapters/{n}", s.handleChapter)
		r.Delete("/works/{workID}/chapters/{n}/cache", s.handleInvalidateChapter)
		r.Delete("/works/{workID}/cache", s.handleInvalidateWork)
		r.Delete("/cache", s.handleInvalidateAll)

		r.Get("/glossaries", s.handleListGlossaries)
		r.Get("/glossaries/{name}", s.handleGetGlossary)
		r.Put("/glossaries/{name}", s.handleSaveGlossary)
		r.Post("/glossaries/{name}/check", s.handleCheckGlossary)
		r.Post("/glossaries/{name}/import", s.handleImportGlossary)
		r.Put("/glossaries/{name}/enabled", s.handleGlossaryEnabled)

		r.Get("/honorifics", s.handleListHonorifics)
		r.Put("/honorifics/{id}", s.handlePutHonorific)
		r.Delete("/honorifics/{id}", s.handleDeleteHonorific)
		r.Put("/honorifics/{id}/enabled", s.handleHonorificEnabled)

		r.Post("/updates", s.handleSubmitUpdate)
		r.Get("/updates/{jobID}", s.handleUpdateStatus)

		r.Get("/stats/fetch", s.handleFetchStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
		"cached":      s.orchestrator.Cache.Len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// storeError maps a catalog or glossary store error to a response.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, glossstore.ErrInvalidName):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("request failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
