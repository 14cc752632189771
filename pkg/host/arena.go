// Package host marshals commands across the native call boundary and
// polls raw input events back from the engine.
//
// Calls are blocking and strictly sequential per session: the argument
// arena backing each call is shared session state and is cleared at the
// start of every call, so two in-flight calls would corrupt each other's
// argument buffers. The bridge enforces this with a mutex and an
// in-flight guard.
package host

import (
	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/pkg/protocol"
)

// Arena is the reusable per-session argument buffer. Everything a call
// encodes lives in the arena until the call's result header has been
// decoded; the native side reads argument memory asynchronously relative
// to normal reclamation timing, so the arena must stay reachable for the
// full call duration.
type Arena struct {
	enc      *protocol.Encoder
	inFlight bool
}

// NewArena creates an arena with capacity sized for typical commit
// payloads.
func NewArena() *Arena {
	return &Arena{enc: protocol.NewEncoderWithCap(4096)}
}

// Begin claims the arena for one call, clearing any previous call's
// arguments. Claiming an arena that is already in flight is a caller
// bug surfaced as a coded error.
func (a *Arena) Begin() (*protocol.Encoder, error) {
	if a.inFlight {
		return nil, errors.New(errors.CodeCallInFlight)
	}
	a.inFlight = true
	a.enc.Reset()
	return a.enc, nil
}

// End releases the arena after the call's result has been fully decoded.
// The argument bytes stay allocated for reuse by the next call.
func (a *Arena) End() {
	a.inFlight = false
}

// InFlight reports whether a call currently owns the arena.
func (a *Arena) InFlight() bool {
	return a.inFlight
}
