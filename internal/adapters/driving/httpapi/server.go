// Package httpapi serves the question answering API over HTTP.
//
// Routes:
//
//	POST /ask     {"question", "book_id", "top_k"} -> answer with sources
//	GET  /toc     ?book_id=... -> table of contents
//	GET  /indexes -> {"count", "books"}
//	GET  /health  -> {"ok", "version", "dependencies"}
//
// Every response is JSON. Unknown routes return 404.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/tutor/internal/core/ports/driving"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 1 << 20

// healthTimeout bounds each dependency probe.
const healthTimeout = 3 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP adapter over the answer and toc services.
type Server struct {
	answer  driving.AnswerService
	toc     driving.TOCService
	catalog driving.CatalogService
	version string
	checks  map[string]HealthCheck
	maxBody int64
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithTOC enables GET /toc.
func WithTOC(toc driving.TOCService) Option {
	return func(s *Server) {
		s.toc = toc
	}
}

// WithCatalog enables GET /indexes.
func WithCatalog(catalog driving.CatalogService) Option {
	return func(s *Server) {
		s.catalog = catalog
	}
}

// WithHealthCheck adds a dependency probe to /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		if check != nil {
			s.checks[name] = check
		}
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// NewServer creates the HTTP adapter. answer may be nil, in which case
// /ask reports the service as unavailable.
func NewServer(answer driving.AnswerService, opts ...Option) *Server {
	s := &Server{
		answer:  answer,
		version: "dev",
		checks:  make(map[string]HealthCheck),
		maxBody: DefaultMaxBodyBytes,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /ask", s.handleAsk)
	s.mux.HandleFunc("GET /toc", s.handleTOC)
	s.mux.HandleFunc("GET /indexes", s.handleIndexes)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleNotFound)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
