// Package server exposes code generation over HTTP.
//
// Routes:
//
//	GET  /healthz             liveness check
//	GET  /version             build information
//	POST /v1/diagrams         generate code from a graph document (JSON or YAML body)
//	POST /v1/diagrams/query   plan a document from free text, then generate code
//
// Errors are JSON objects {"error": {"code": ..., "message": ...}} with the
// status derived from the error code. Every response carries an
// X-Request-ID header.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cloudsketch/pkg/config"
	"github.com/matzehuels/cloudsketch/pkg/pipeline"
	"github.com/matzehuels/cloudsketch/pkg/planner"
)

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner
	// Planner backs the query route. Nil disables it (501).
	Planner planner.Planner
	Server  config.ServerConfig
	Render  config.RenderConfig
	Logger  *log.Logger
}

// Server is the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	planner planner.Planner
	cfg     config.ServerConfig
	render  config.RenderConfig
	logger  *log.Logger
	router  chi.Router
}

// New builds the server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Server.MaxBodyBytes <= 0 {
		opts.Server.MaxBodyBytes = config.Default().Server.MaxBodyBytes
	}
	s := &Server{
		runner:  opts.Runner,
		planner: opts.Planner,
		cfg:     opts.Server,
		render:  opts.Render,
		logger:  opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1/diagrams", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/", s.handleGenerate)
		r.Post("/query", s.handleQuery)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFound(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, methodNotAllowed(r))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout.Duration,
		WriteTimeout: s.cfg.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "planner", s.planner != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
