// Package server exposes org charts over HTTP.
//
// Routes:
//
//	GET    /healthz                          liveness and version
//	GET    /api/chart?name=&save=&refresh=   positioned layout (JSON)
//	GET    /api/chart.svg?name=&legend=      rendered chart
//	POST   /api/departments                  create a root department
//	POST   /api/departments/{id}/children    create a child department
//	PUT    /api/departments/{id}             edit a department
//	DELETE /api/departments/{id}             delete a department and its subtree
//	GET    /api/snapshots?limit=             saved charts, newest first
//	GET    /api/snapshots/{id}               one saved chart
//
// Responses use the backend's envelope: {"data": ...} on success and
// {"error": {"code": ..., "message": ...}} on failure. An empty hierarchy
// (or a search with no results) is a 200 with "empty": true.
//
// Edits, deletes and child creation are dispatched through the Actions
// attached to the target node of a freshly built chart, the same path a
// rendering surface uses.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/store"
)

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Source loads the hierarchy for a search query ("" = everything).
// *departments.Client implements it.
type Source interface {
	Fetch(ctx context.Context, query string) (hierarchy.Forest, error)
}

// Config wires a Server.
type Config struct {
	// Source provides hierarchies. Required.
	Source Source

	// Actions is attached to every node. Without it the department
	// routes answer 501.
	Actions graph.Actions

	// Runner runs flatten and layout. Defaults to an uncached runner.
	Runner *pipeline.Runner

	// Store saves snapshots. Without it the snapshot routes answer 501.
	Store store.Store

	// Layout sets the box and gaps. Zero values take the defaults.
	Layout layout.Options

	// Backend is recorded on saved snapshots.
	Backend string

	Logger *log.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New builds a Server and its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/chart", s.chart)
		r.Get("/chart.svg", s.chartSVG)

		r.Route("/departments", func(r chi.Router) {
			r.Use(s.requireActions)
			r.Post("/", s.createRoot)
			r.Put("/{id}", s.updateDepartment)
			r.Delete("/{id}", s.deleteDepartment)
			r.Post("/{id}/children", s.createChild)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/", s.listSnapshots)
			r.Get("/{id}", s.getSnapshot)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
