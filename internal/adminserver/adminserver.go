// Copyright Contributors to the KubeOpenCode project

// Package adminserver runs the operator's admin HTTP surface: exactly
// GET /health and GET /ready, adapted from the wider UI/API server this
// project's teacher ships but narrowed to what an operator needs (no UI,
// no task/agent REST API, no auth/impersonation — there is no browser
// client for a controller-only binary).
package adminserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
)

var log = ctrl.Log.WithName("adminserver")

// Options configures Server.
type Options struct {
	// Address is the address the server listens on (e.g., ":8081").
	Address string
}

// Server is the operator's minimal admin HTTP surface.
type Server struct {
	opts       Options
	httpServer *http.Server
	k8sClient  client.Client
}

// New creates a Server that checks readiness against k8sClient.
func New(opts Options, k8sClient client.Client) *Server {
	return &Server{opts: opts, k8sClient: k8sClient}
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	router := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              s.opts.Address,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("starting admin HTTP server", "address", s.opts.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("shutting down admin HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", s.healthHandler)
	r.Get("/ready", s.readyHandler)

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readyHandler reports ready once the manager's client can list DocsRuns,
// the same "can we reach the API" check the teacher's server does for
// Tasks.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var runs agentsv1.DocsRunList
	if err := s.k8sClient.List(ctx, &runs, client.Limit(1)); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
