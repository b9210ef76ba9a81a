// Package workerhttp exposes the worker process's liveness and
// readiness endpoints over HTTP, so an orchestrator (Kubernetes,
// systemd, a load balancer health check) can supervise it without
// reaching into the job queue directly.
package workerhttp

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Checker reports whether a dependency the worker needs (manifest
// store, artifact storage, cache) is currently reachable.
type Checker func() error

// Server is the worker's minimal HTTP surface: two routes, no business
// logic. It never touches job state directly.
type Server struct {
	router chi.Router
	ready  atomic.Bool
	checks []Checker
}

// NewServer builds a Server with readyz gated on the given readiness
// checks; an empty check list makes readyz always succeed once the
// worker calls MarkReady.
func NewServer(checks ...Checker) *Server {
	s := &Server{
		router: chi.NewRouter(),
		checks: checks,
	}
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	return s
}

// Handler returns the underlying http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MarkReady flips the worker into the ready state, typically called
// once startup (config load, cache/store connections) has completed.
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

// handleHealthz always reports ok once the process is running:
// liveness, not readiness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

// handleReadyz reports ok only once MarkReady has been called and
// every registered Checker passes.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "starting")
		return
	}
	for _, check := range s.checks {
		if err := check(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeStatus(w, http.StatusOK, "ok")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
