// Package status exposes a small HTTP surface for operators: liveness, the
// current active incidents and the daemon's own Prometheus metrics.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
	"github.com/vigil-monitoring/vigil/pkg/store"
)

// Server is the status HTTP listener. It is read-only: nothing it serves
// can change monitoring behaviour.
type Server struct {
	store store.Store
	log   *logger.Logger
	srv   *http.Server
}

func New(addr string, st store.Store, log *logger.Logger) *Server {
	s := &Server{store: st, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/actives", s.handleActives)
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		s.log.Info("status server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server failed", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleActives(w http.ResponseWriter, r *http.Request) {
	actives, err := s.store.GetAllActives(r.Context())
	if err != nil {
		s.log.Error("listing actives", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list active incidents"})
		return
	}
	if actives == nil {
		actives = []model.ActiveRecord{}
	}
	writeJSON(w, http.StatusOK, actives)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
