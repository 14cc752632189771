package loom

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/internal/telemetry"
	"github.com/loomui/loom/pkg/batch"
	"github.com/loomui/loom/pkg/events"
	"github.com/loomui/loom/pkg/host"
	"github.com/loomui/loom/pkg/protocol"
	"github.com/loomui/loom/pkg/shadow"
)

// SessionConfig carries per-session settings. The zero value is usable:
// defaults are filled in by NewSession.
type SessionConfig struct {
	// Window is forwarded to the engine when the session's window is
	// created.
	Window protocol.WindowConfig

	// PollInterval is the event poll cadence. Defaults to
	// host.DefaultPollInterval.
	PollInterval time.Duration

	// ReadyDeadline bounds the readiness wait after window creation.
	// Defaults to host.DefaultReadyDeadline.
	ReadyDeadline time.Duration

	// Logger receives session lifecycle and dispatch diagnostics.
	// Defaults to slog.Default.
	Logger *slog.Logger
}

// Session owns one native window and everything mirrored into it: the
// shadow tree, the event handler registry, the pending mutation set, and
// the bridge the native calls go through.
//
// Structural edits and commits must come from a single framework
// goroutine. Event dispatch runs on the session's poll goroutine and is
// serialized against edits internally. Handlers must not call back into
// the session's edit methods synchronously; they should signal the
// framework loop instead.
type Session struct {
	windowID uint64
	log      *slog.Logger
	tracer   trace.Tracer

	// mu serializes framework edits against event dispatch.
	mu      sync.Mutex
	tree    *shadow.Tree
	router  *events.Router
	batcher *batch.Batcher
	bridge  *host.Bridge

	cancelPoll context.CancelFunc
	pollDone   chan struct{}
	closed     bool
}

// NewSession creates the native window, waits for the engine to report it
// ready, and starts the event poll loop. The returned session is ready
// for structural edits.
func NewSession(ctx context.Context, conn host.Conn, cfg SessionConfig) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = host.DefaultPollInterval
	}
	if cfg.ReadyDeadline <= 0 {
		cfg.ReadyDeadline = host.DefaultReadyDeadline
	}

	bridge := host.NewBridge(conn, cfg.Logger)

	windowID, err := bridge.CreateWindow(ctx, cfg.Window)
	if err != nil {
		bridge.Close()
		return nil, err
	}
	if err := host.WaitReady(ctx, bridge, windowID, cfg.ReadyDeadline); err != nil {
		bridge.Close()
		return nil, err
	}

	tree := shadow.New()
	s := &Session{
		windowID: windowID,
		log:      cfg.Logger.With("window", windowID),
		tracer:   telemetry.Tracer(),
		tree:     tree,
		router:   events.NewRouter(tree),
		batcher:  batch.New(windowID),
		bridge:   bridge,
		pollDone: make(chan struct{}),
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s.cancelPoll = cancel
	poller := host.NewPoller(bridge, windowID, s, cfg.PollInterval, cfg.Logger)
	go func() {
		defer close(s.pollDone)
		poller.Run(pollCtx)
	}()

	telemetry.RecordSessionOpen()
	s.log.Info("session opened", "poll_interval", cfg.PollInterval)
	return s, nil
}

// WindowID reports the engine-assigned window handle.
func (s *Session) WindowID() uint64 { return s.windowID }

// DispatchEvent routes one decoded engine event through the shadow tree.
// It reports whether the event was delivered; events whose target no
// longer exists are dropped and report false. Called by the poll loop;
// exported so tests and embedders can inject events directly.
func (s *Session) DispatchEvent(ev protocol.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(context.Background(), "loom.Dispatch",
		trace.WithAttributes(
			attribute.String("loom.event_type", ev.Type().String()),
			attribute.Int64("loom.target", int64(ev.Target())),
		))
	defer span.End()

	delivered := s.router.DispatchEvent(ev)
	span.SetAttributes(attribute.Bool("loom.delivered", delivered))
	return delivered
}

// Commit flushes every pending mutation to the engine in a single
// batched call, then requests a render pass for the root. A commit with
// no pending mutations and an unchanged tree still triggers the render
// request so the engine repaints after pure event work.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.CodeTransportClosed)
	}

	ctx, span := s.tracer.Start(ctx, "loom.Commit",
		trace.WithAttributes(attribute.Int64("loom.window_id", int64(s.windowID))))
	defer span.End()

	if err := s.batcher.Flush(ctxFlusher{ctx: ctx, bridge: s.bridge}); err != nil {
		return err
	}
	rootID := s.tree.RootID()
	if rootID == 0 {
		// Nothing mounted yet; an empty commit is not an error.
		return nil
	}
	return s.bridge.RenderNode(ctx, &protocol.RenderRequest{
		WindowID: s.windowID,
		NodeID:   rootID,
	})
}

// closeWindowTimeout caps the graceful CloseWindow call during shutdown
// when the caller's context carries no deadline of its own.
const closeWindowTimeout = 2 * time.Second

// Close stops the poll loop, asks the engine to close the window, and
// tears the transport down. Safe to call more than once. Close is
// bounded even against an engine that stops responding: poll roundtrips
// carry their own deadline, and the graceful window teardown is capped
// before the transport is forced shut.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancelPoll()
	<-s.pollDone

	// Best effort; the transport may already be gone.
	cwCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		cwCtx, cancel = context.WithTimeout(ctx, closeWindowTimeout)
		defer cancel()
	}
	if err := s.bridge.CloseWindow(cwCtx, s.windowID); err != nil {
		s.log.Warn("close window failed", "err", err)
	}
	err := s.bridge.Close()
	telemetry.RecordSessionClose()
	s.log.Info("session closed")
	return err
}

// ctxFlusher adapts the bridge to the batcher's flush interface, pinning
// the commit's context onto the native call.
type ctxFlusher struct {
	ctx    context.Context
	bridge *host.Bridge
}

func (f ctxFlusher) ApplyUpdates(b *protocol.UpdateBatch) error {
	return f.bridge.ApplyUpdates(f.ctx, b)
}
