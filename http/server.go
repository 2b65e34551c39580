// Package http provides the HTTP boundary of the scraping service and
// the plain-HTTP site discovery helpers (catalog probe, sitemap-based
// inventory location).
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lotscan/lotscan"
)

// ShutdownTimeout is how long in-flight scrapes get to finish when the
// server closes.
const ShutdownTimeout = 10 * time.Second

// Server is the HTTP server for the scraping service. Set the exported
// fields before calling Open.
type Server struct {
	ln     net.Listener
	server *http.Server
	router chi.Router
	logger *slog.Logger

	Addr string

	Scraper  lotscan.Scraper
	Browser  lotscan.Browser
	Patterns lotscan.PatternService
}

// NewServer creates a new Server with routes registered.
func NewServer(logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Post("/scrape", s.handleScrape)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/close", s.handleClose)

	s.server = &http.Server{Handler: s.router}
	return s
}

// ServeHTTP makes the server usable directly in tests via httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Open starts listening on Addr. It returns once the listener is bound;
// serving happens on a background goroutine.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server", "err", err)
		}
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleScrape runs one scrape. Extraction failure is a normal outcome
// and still answers 200 with success false; only a malformed request is
// a client error.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req lotscan.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, lotscan.Errorf(lotscan.EINVALID, "invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.Scraper.Scrape(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if result.Vehicles == nil {
		result.Vehicles = []lotscan.VehicleRecord{}
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleHealth answers non-200 only when the browser process is down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	if s.Browser != nil && !s.Browser.Healthy() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "timestamp": now})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": now})
}

// handleClose shuts down the shared browser process. The next scrape
// will fail until the service restarts; the endpoint exists for
// orchestrators that recycle workers.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// requestLogger tags each request with an ID and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		begin := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(begin),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// writeError maps error codes onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch lotscan.ErrorCode(err) {
	case lotscan.EINVALID:
		status = http.StatusBadRequest
	case lotscan.ENOTFOUND:
		status = http.StatusNotFound
	case lotscan.EUNAVAILABLE:
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   lotscan.ErrorMessage(err),
	})
}
