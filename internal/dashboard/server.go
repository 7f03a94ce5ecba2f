// Package dashboard serves scan results and feasibility reports over a small
// JSON API for dashboards and scripting.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/pmcc_scout/internal/storage"
)

// Config carries the server settings.
type Config struct {
	ListenAddr string
	AuthToken  string
}

// Server exposes the stored scan history. Read-only: the scanner owns writes.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	storage   storage.Interface
	logger    *logrus.Logger
	addr      string
	authToken string
}

// NewServer builds the API server around a storage backend.
func NewServer(cfg Config, store storage.Interface, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		router:    chi.NewRouter(),
		storage:   store,
		logger:    logger,
		addr:      cfg.ListenAddr,
		authToken: cfg.AuthToken,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/scans", s.handleLatestScans)
	s.router.Get("/api/scans/{symbol}", s.handleLatestScan)
	s.router.Get("/api/scans/{symbol}/history", s.handleScanHistory)
	s.router.Get("/api/feasibility/{symbol}", s.handleFeasibility)
	s.router.Get("/api/stats", s.handleStats)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting report server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleLatestScans(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.storage.LatestBySymbol())
}

func (s *Server) handleLatestScan(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	record, err := s.storage.LatestScan(symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNoScans) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		s.logger.WithError(err).Error("Failed to load scan")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, record)
}

func (s *Server) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history := s.storage.ScanHistory(symbol, limit)
	if history == nil {
		history = []storage.ScanRecord{}
	}
	s.writeJSON(w, history)
}

func (s *Server) handleFeasibility(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	record, err := s.storage.LatestScan(symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNoScans) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		s.logger.WithError(err).Error("Failed to load scan")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if record.Result == nil || record.Result.Feasibility == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, record.Result.Feasibility)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.storage.GetStatistics())
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
