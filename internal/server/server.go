// Package server is the network host of a calculator session. It serves a
// JSON API and a socket.io live channel over one shared store, and
// broadcasts every committed snapshot to connected clients.
//
// All store access goes through a single mutex.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/metrics"
	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/store"
	"github.com/vk/trackertools/internal/value"
	"github.com/zishang520/socket.io/v2/socket"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Server owns the store of one shared session.
type Server struct {
	ctx     context.Context
	mu      sync.Mutex
	store   *store.Store
	reg     *registry.Registry
	metrics *metrics.Metrics
	io      *socket.Server
	handler http.Handler
}

// New wires a Server around st. A nil m gets a fresh metrics set. The
// context provides the logger for background work.
func New(ctx context.Context, st *store.Store, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		ctx:     ctx,
		store:   st,
		reg:     st.Registry(),
		metrics: m,
		io:      socket.NewServer(nil, nil),
	}
	st.Subscribe(s.broadcast)
	s.io.On("connection", s.onConnection)
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API, health, metrics and
// socket.io endpoints.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Snapshot returns the current snapshot.
func (s *Server) Snapshot() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// SetField applies one edit from a client. Read-only fields are rejected
// here, before the store sees the edit.
func (s *Server) SetField(ctx context.Context, id string, raw value.Value) (snapshot.Snapshot, error) {
	return s.edit(ctx, id, func(registry.Definition, snapshot.Snapshot) value.Value {
		return raw
	})
}

// Nudge moves id by steps increments of its step, or of its large step when
// large is set. The current value is read under the same lock as the edit.
func (s *Server) Nudge(ctx context.Context, id string, steps int, large bool) (snapshot.Snapshot, error) {
	return s.edit(ctx, id, func(def registry.Definition, cur snapshot.Snapshot) value.Value {
		return def.Nudge(cur.Value(id), steps, large)
	})
}

// edit serializes one store edit whose raw value next computes from the
// field definition and the current snapshot.
func (s *Server) edit(ctx context.Context, id string, next func(registry.Definition, snapshot.Snapshot) value.Value) (snapshot.Snapshot, error) {
	logger := ctxlog.FromContext(ctx).With("field", id)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	snap := s.store.Snapshot()
	var raw value.Value
	err := s.reg.Editable(id)
	if err == nil {
		def, _ := s.reg.Get(id)
		raw = next(def, snap)
		snap, err = s.store.SetField(id, raw)
	}

	label := id
	if errors.Is(err, registry.ErrUnknownField) {
		label = metrics.UnknownFieldLabel
	}
	s.metrics.ObserveEdit(label, outcome(err), time.Since(start))

	if err != nil {
		logger.Warn("Edit rejected.", "value", raw.String(), "error", err)
		return snap, err
	}
	logger.Debug("Edit applied.", "value", raw.String())
	return snap, nil
}

// broadcast is subscribed to the store and runs under s.mu.
func (s *Server) broadcast(_, next snapshot.Snapshot) {
	s.io.Emit(EventSnapshot, Entries(s.reg, next))
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := ctxlog.FromContext(ctx)

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🎛️ Server starting", "address", fmt.Sprintf("http://%s", ln.Addr()))
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("🎛️ Shutting down server...")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Server shut down gracefully.")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Close disconnects every socket.io client.
func (s *Server) Close() {
	s.io.Close(nil)
}
