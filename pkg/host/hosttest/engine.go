// Package hosttest provides an in-process fake native engine that speaks
// the wire protocol. It implements host.Conn directly, so bridge,
// session, and integration tests can exercise the full marshal/decode
// path without a real engine.
package hosttest

import (
	"context"
	"sync"

	"github.com/loomui/loom/pkg/protocol"
)

// Engine is a scripted fake native engine.
//
// By default every call succeeds: windows are issued sequentially,
// readiness is immediate, and event polls drain whatever batches tests
// queued. Failures are scripted per opcode.
type Engine struct {
	mu sync.Mutex

	nextWindow uint64
	readyAfter int // Ready polls to refuse before reporting ready
	readyPolls int

	updates []*protocol.UpdateBatch
	renders []*protocol.RenderRequest
	queue   [][]byte // pre-encoded event batch bodies, one per poll
	polls   int

	released []uint64
	failures map[protocol.Opcode]scriptedFailure

	closed bool
}

type scriptedFailure struct {
	status   protocol.Status
	errorRef uint64
}

// New creates a fake engine.
func New() *Engine {
	return &Engine{
		nextWindow: 100,
		failures:   make(map[protocol.Opcode]scriptedFailure),
	}
}

// SetReadyAfter makes the first n Ready probes report a NotReady status.
func (e *Engine) SetReadyAfter(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readyAfter = n
	e.readyPolls = 0
}

// FailNext scripts the next call of op to fail with the given status and
// error reference. The script clears after one use.
func (e *Engine) FailNext(op protocol.Opcode, status protocol.Status, errorRef uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[op] = scriptedFailure{status: status, errorRef: errorRef}
}

// QueueEvents appends one event batch to be returned by the next poll.
func (e *Engine) QueueEvents(events []protocol.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, protocol.EncodeEventBatch(events))
}

// QueueRawBatch appends a raw (possibly corrupt) poll body.
func (e *Engine) QueueRawBatch(body []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, body)
}

// Updates returns every batched update payload received so far.
func (e *Engine) Updates() []*protocol.UpdateBatch {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*protocol.UpdateBatch, len(e.updates))
	copy(out, e.updates)
	return out
}

// Renders returns every render request received so far.
func (e *Engine) Renders() []*protocol.RenderRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*protocol.RenderRequest, len(e.renders))
	copy(out, e.renders)
	return out
}

// Released returns the error references released so far.
func (e *Engine) Released() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]uint64, len(e.released))
	copy(out, e.released)
	return out
}

// Polls returns how many PollEvents calls the engine has served.
func (e *Engine) Polls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.polls
}

// Roundtrip implements host.Conn.
func (e *Engine) Roundtrip(_ context.Context, frame *protocol.Frame) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if f, ok := e.failures[frame.Op]; ok {
		delete(e.failures, frame.Op)
		return protocol.EncodeResultHeader(protocol.ResultHeader{
			Status: f.status,
			Value:  f.errorRef,
		}), nil
	}

	switch frame.Op {
	case protocol.OpCreateWindow:
		if _, err := protocol.DecodeWindowConfig(protocol.NewDecoder(frame.Payload)); err != nil {
			return e.status(protocol.StatusInvalidArg), nil
		}
		e.nextWindow++
		return protocol.EncodeResultHeader(protocol.ResultHeader{
			Status: protocol.StatusOK,
			Value:  e.nextWindow,
		}), nil

	case protocol.OpReady:
		if e.readyPolls < e.readyAfter {
			e.readyPolls++
			return e.status(protocol.StatusNotReady), nil
		}
		return e.ok(), nil

	case protocol.OpApplyUpdates:
		batch, err := protocol.DecodeUpdateBatch(frame.Payload)
		if err != nil {
			return e.status(protocol.StatusInvalidArg), nil
		}
		e.updates = append(e.updates, batch)
		return e.ok(), nil

	case protocol.OpRenderNode:
		req, err := protocol.DecodeRenderRequest(frame.Payload)
		if err != nil {
			return e.status(protocol.StatusInvalidArg), nil
		}
		e.renders = append(e.renders, req)
		return e.ok(), nil

	case protocol.OpPollEvents:
		e.polls++
		var body []byte
		if len(e.queue) > 0 {
			body = e.queue[0]
			e.queue = e.queue[1:]
		}
		return append(e.ok(), body...), nil

	case protocol.OpReleaseError:
		ref, err := protocol.NewDecoder(frame.Payload).ReadUvarint()
		if err != nil {
			return e.status(protocol.StatusInvalidArg), nil
		}
		e.released = append(e.released, ref)
		return e.ok(), nil

	case protocol.OpCloseWindow:
		return e.ok(), nil

	default:
		return e.status(protocol.StatusInvalidArg), nil
	}
}

// Close implements host.Conn.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) ok() []byte {
	return protocol.EncodeResultHeader(protocol.ResultHeader{Status: protocol.StatusOK})
}

func (e *Engine) status(s protocol.Status) []byte {
	return protocol.EncodeResultHeader(protocol.ResultHeader{Status: s})
}
