// Package api is the HTTP surface of the prediction service.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geraldgg/helioselene/internal/auth"
	"github.com/geraldgg/helioselene/internal/health"
	"github.com/geraldgg/helioselene/internal/metrics"
	"github.com/geraldgg/helioselene/internal/tle"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	store      *tle.Store
	trustProxy bool
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, store *tle.Store, trustProxy bool) *Server {
	s := &Server{
		logger:     logger,
		store:      store,
		trustProxy: trustProxy,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool {
		return store.Get() != nil
	}))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/transits", s.transitsHandler)
	mux.HandleFunc("GET /api/v1/satellites", s.satellitesHandler)
	mux.HandleFunc("GET /api/v1/tle/{norad_id}", s.tleHandler)

	// Middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = s.loggingMiddleware(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second, // long windows take real compute
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		duration := time.Since(start)
		level := slog.LevelInfo
		if probePath(r.URL.Path) {
			level = slog.LevelDebug
		}

		s.logger.Log(r.Context(), level, "request",
			"component", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"status", strconv.Itoa(sr.statusCode),
			"duration_ms", duration.Milliseconds(),
			"remote_ip", remoteIP(r, s.trustProxy),
		)
	})
}
