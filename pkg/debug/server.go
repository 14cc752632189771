// Package debug serves a local HTTP inspection surface: Prometheus
// metrics plus a read-only view of every live session's shadow tree.
package debug

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loomui/loom/pkg/protocol"
)

// Inspectable is the session surface the debug server reads. All methods
// must be safe to call from the server's request goroutines.
type Inspectable interface {
	WindowID() uint64
	Tree() *protocol.UpdateBatch
}

// Server is the inspection HTTP server. Sessions attach themselves on
// open and detach on close.
type Server struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[uint64]Inspectable

	httpSrv *http.Server
}

// NewServer builds a server bound to addr. Nothing listens until Start.
func NewServer(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		log:      log,
		sessions: make(map[uint64]Inspectable),
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Attach registers a session for inspection.
func (s *Server) Attach(sess Inspectable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.WindowID()] = sess
}

// Detach removes a session. Unknown ids are ignored.
func (s *Server) Detach(windowID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, windowID)
}

// Handler returns the route tree. Exposed separately so tests and
// embedders can mount it without a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/sessions", s.handleSessions)
	r.Get("/sessions/{windowID}/tree", s.handleTree)
	return r
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("debug server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("debug server failed", "err", err)
		}
	}()
}

// Shutdown stops the listener, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// sessionSummary is one row of the session listing.
type sessionSummary struct {
	WindowID uint64 `json:"window_id"`
	Nodes    int    `json:"nodes"`
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	summaries := make([]sessionSummary, 0, len(s.sessions))
	for id, sess := range s.sessions {
		summaries = append(summaries, sessionSummary{
			WindowID: id,
			Nodes:    len(sess.Tree().Nodes),
		})
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].WindowID < summaries[j].WindowID
	})
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "windowID"), 10, 64)
	if err != nil {
		http.Error(w, "bad window id", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, sess.Tree())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("debug response encode failed", "err", err)
	}
}
