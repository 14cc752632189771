package host

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/internal/telemetry"
	"github.com/loomui/loom/pkg/protocol"
)

// Bridge marshals calls for one session across the native boundary.
// All calls on a bridge are sequential; see the package comment.
type Bridge struct {
	conn  Conn
	arena *Arena
	log   *slog.Logger

	// mu serializes calls. closed lives outside it so Close never waits
	// on an in-flight call; closing the transport is what unblocks one.
	mu     sync.Mutex
	closed atomic.Bool
}

// NewBridge creates a bridge over the given transport.
func NewBridge(conn Conn, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		conn:  conn,
		arena: NewArena(),
		log:   log,
	}
}

// Call issues one native command. encode writes the argument payload into
// the arena encoder; it may be nil for argument-free commands. The
// returned body is the response remainder after the result header.
func (b *Bridge) Call(ctx context.Context, op protocol.Opcode, encode func(*protocol.Encoder)) (protocol.ResultHeader, []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return protocol.ResultHeader{}, nil, errors.New(errors.CodeTransportClosed)
	}

	enc, err := b.arena.Begin()
	if err != nil {
		return protocol.ResultHeader{}, nil, err
	}
	defer b.arena.End()

	if encode != nil {
		encode(enc)
	}
	if len(enc.Bytes()) > protocol.MaxPayloadSize {
		return protocol.ResultHeader{}, nil, errors.Newf(errors.CodeNativeCallFailed,
			"%s: payload %d bytes exceeds frame limit", op, len(enc.Bytes())).
			Wrap(protocol.ErrFrameTooLarge)
	}
	frame := protocol.NewFrame(op, enc.Bytes())

	start := time.Now()
	resp, err := b.conn.Roundtrip(ctx, frame)
	if err != nil {
		telemetry.RecordNativeCall(op.String(), "transport_error", time.Since(start).Seconds())
		return protocol.ResultHeader{}, nil, err
	}

	header, body, err := protocol.DecodeResultHeader(resp)
	if err != nil {
		telemetry.RecordNativeCall(op.String(), "bad_header", time.Since(start).Seconds())
		return protocol.ResultHeader{}, nil, errors.New(errors.CodeNativeCallFailed).Wrap(err)
	}
	telemetry.RecordNativeCall(op.String(), header.Status.String(), time.Since(start).Seconds())

	if !header.OK() {
		// The error payload is native-owned; release it before the
		// typed error reaches the caller.
		if ref := header.ErrorRef(); ref != 0 {
			b.releaseError(ctx, ref)
		}
		return header, nil, errors.Newf(errors.CodeNativeCallFailed, "%s: status %s", op, header.Status)
	}
	return header, body, nil
}

// releaseError tells the engine to free an error payload. Failure to
// release is logged, not surfaced: the original call error is what the
// caller needs to see.
func (b *Bridge) releaseError(ctx context.Context, ref uint64) {
	enc := protocol.NewEncoderWithCap(protocol.MaxVarintLen)
	enc.WriteUvarint(ref)
	frame := protocol.NewFrame(protocol.OpReleaseError, enc.Bytes())
	resp, err := b.conn.Roundtrip(ctx, frame)
	if err != nil {
		b.log.Warn("release of native error payload failed", "ref", ref, "err", err)
		return
	}
	if header, _, err := protocol.DecodeResultHeader(resp); err != nil || !header.OK() {
		b.log.Warn("release of native error payload rejected", "ref", ref)
	}
}

// CreateWindow creates a native window and returns its handle.
func (b *Bridge) CreateWindow(ctx context.Context, cfg protocol.WindowConfig) (uint64, error) {
	header, _, err := b.Call(ctx, protocol.OpCreateWindow, func(e *protocol.Encoder) {
		protocol.EncodeWindowConfigTo(e, cfg)
	})
	if err != nil {
		return 0, err
	}
	return header.Value, nil
}

// Ready probes engine readiness for a window. A NotReady status is
// reported as (false, nil); other failures are errors.
func (b *Bridge) Ready(ctx context.Context, windowID uint64) (bool, error) {
	header, _, err := b.Call(ctx, protocol.OpReady, func(e *protocol.Encoder) {
		e.WriteUvarint(windowID)
	})
	if err != nil {
		if header.Status == protocol.StatusNotReady {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ApplyUpdates sends one commit's batched update payload.
func (b *Bridge) ApplyUpdates(ctx context.Context, batch *protocol.UpdateBatch) error {
	_, _, err := b.Call(ctx, protocol.OpApplyUpdates, func(e *protocol.Encoder) {
		protocol.EncodeUpdateBatchTo(e, batch)
	})
	if err != nil {
		return err
	}
	telemetry.RecordFlush(len(batch.Nodes))
	return nil
}

// RenderNode requests a render pass rooted at one node.
func (b *Bridge) RenderNode(ctx context.Context, req *protocol.RenderRequest) error {
	_, _, err := b.Call(ctx, protocol.OpRenderNode, func(e *protocol.Encoder) {
		protocol.EncodeRenderRequestTo(e, req)
	})
	return err
}

// PollEvents drains raw input events queued since the last poll. An empty
// response body means no events this tick.
func (b *Bridge) PollEvents(ctx context.Context, windowID uint64) ([]protocol.Event, error) {
	_, body, err := b.Call(ctx, protocol.OpPollEvents, func(e *protocol.Encoder) {
		e.WriteUvarint(windowID)
	})
	if err != nil {
		return nil, err
	}
	events, err := protocol.DecodeEventBatch(body)
	if err != nil {
		return nil, errors.New(errors.CodeEventDecode).Wrap(err)
	}
	return events, nil
}

// CloseWindow tears down a window. Best effort during shutdown.
func (b *Bridge) CloseWindow(ctx context.Context, windowID uint64) error {
	_, _, err := b.Call(ctx, protocol.OpCloseWindow, func(e *protocol.Encoder) {
		e.WriteUvarint(windowID)
	})
	return err
}

// Close marks the bridge closed and closes the transport. Subsequent
// calls fail with a TransportClosed error. Close does not wait for an
// in-flight call: closing the transport forces its pending read to fail,
// which is the only way out of a read against a wedged engine.
func (b *Bridge) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.conn.Close()
}
