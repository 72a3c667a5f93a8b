// Package health provides the liveness and readiness endpoints.
//
// Docker and Kubernetes poll these. /healthz answers as soon as the
// process runs; /readyz answers once the transports are up and reports
// how many calls are open.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Counter reports the number of open calls.
type Counter interface {
	Active() int
}

// Server is a lightweight HTTP server that exposes /healthz and /readyz.
type Server struct {
	port    int
	ready   atomic.Bool
	calls   Counter
	started time.Time
	server  *http.Server
}

// New creates a new health check server. calls may be nil.
func New(port int, calls Counter) *Server {
	return &Server{port: port, calls: calls, started: time.Now()}
}

// SetReady marks the service as ready to accept calls.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

type status struct {
	Status      string `json:"status"`
	ActiveCalls *int   `json:"active_calls,omitempty"`
	Uptime      string `json:"uptime,omitempty"`
}

// Handler returns the health mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, status{
			Status: "ok",
			Uptime: time.Since(s.started).Round(time.Second).String(),
		})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, status{Status: "not_ready"})
			return
		}
		st := status{Status: "ok"}
		if s.calls != nil {
			n := s.calls.Active()
			st.ActiveCalls = &n
		}
		writeStatus(w, http.StatusOK, st)
	})
	return mux
}

// ListenAndServe starts the health check HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func writeStatus(w http.ResponseWriter, code int, st status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}
