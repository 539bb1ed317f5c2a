package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Server exposes a heatmap's stats over HTTP and streams snapshots to
// connected clients over Server-Sent Events, the way the teacher's
// web/server streamed per-tile render updates during a progressive
// render — same transport, different payload.
type Server struct {
	port int
	srv  *http.Server

	mu      sync.RWMutex
	current *Heatmap
}

// NewServer builds a telemetry debug server bound to the given port.
func NewServer(port int) *Server {
	return &Server{port: port}
}

// Publish makes a new heatmap the one /stats and /stream report.
func (s *Server) Publish(h *Heatmap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = h
}

func (s *Server) snapshot() (Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Stats{}, false
	}
	return s.current.Summarize(), true
}

// Handler returns the HTTP handler exposing /stats (a JSON snapshot) and
// /stream (an SSE feed of the same snapshot, re-sent whenever polled).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/stream", s.handleStream)
	return mux
}

// ListenAndServe starts the debug server; it blocks until the server
// exits or errors, matching net/http's usual contract.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", s.port), Handler: s.Handler()}
	srv := s.srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, honoring ctx's deadline. It is a
// no-op if ListenAndServe hasn't started the underlying server yet.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.srv
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := s.snapshot()
	if !ok {
		http.Error(w, "no heatmap published yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	stats, ok := s.snapshot()
	if !ok {
		return
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
