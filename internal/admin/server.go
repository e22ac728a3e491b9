// Package admin exposes the operator surface over HTTP: status reads and
// the four control signals.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"dronefollow/internal/core"
	"dronefollow/internal/logging"
)

// Server serves controller status and accepts operator signals.
type Server struct {
	controller *core.Controller
	addr       string
}

// NewServer creates an admin server for the given controller.
func NewServer(controller *core.Controller, addr string) *Server {
	return &Server{controller: controller, addr: addr}
}

// Handler returns the route table. Exposed separately so tests can drive
// it through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /override", s.signal(s.controller.RequestManualOverride, "manual_override"))
	mux.HandleFunc("POST /engage", s.signal(s.controller.RequestAutonomousEngage, "engage"))
	mux.HandleFunc("POST /disarm", s.signal(s.controller.RequestDisarm, "disarm"))
	mux.HandleFunc("POST /reset", s.signal(s.controller.AcknowledgeFault, "fault_reset"))
	return mux
}

// Run serves until the context is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("admin server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.controller.Status()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) signal(fn func(), name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		logging.FromContext(r.Context()).Info("operator signal accepted", "signal", name)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"signal": name, "status": "accepted"})
	}
}
