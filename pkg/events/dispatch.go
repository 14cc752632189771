package events

import "github.com/loomui/loom/pkg/protocol"

// Phase identifies the dispatch phase a handler is invoked in.
type Phase uint8

const (
	PhaseCapture Phase = iota
	PhaseTarget
	PhaseBubble
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseCapture:
		return "Capture"
	case PhaseTarget:
		return "Target"
	case PhaseBubble:
		return "Bubble"
	default:
		return "Unknown"
	}
}

// Dispatch carries one event through its phase traversal. It is handed to
// every invoked handler.
type Dispatch struct {
	// Event is the decoded native event being delivered.
	Event protocol.Event

	// Phase is the phase the current handler runs in.
	Phase Phase

	// Node is the id of the node whose handler is running.
	Node uint64

	stopped bool
}

// StopPropagation halts traversal after the current node's handler list
// finishes. Remaining handlers bound to the same node still run, matching
// standard propagation semantics.
func (d *Dispatch) StopPropagation() {
	d.stopped = true
}

// Stopped reports whether propagation has been stopped.
func (d *Dispatch) Stopped() bool {
	return d.stopped
}

// onceFired records a once-handler invocation for post-dispatch removal.
// The handler collections are never mutated mid-iteration.
type onceFired struct {
	node      uint64
	eventType protocol.EventType
	handlerID uint64
}

// DispatchEvent delivers an event to the handlers along the root-to-target
// path. It returns false without side effects when the target id is no
// longer live - events may reference nodes removed between emission and
// delivery - and true once traversal ran.
func (r *Router) DispatchEvent(ev protocol.Event) bool {
	target := ev.Target()
	if !r.tree.Has(target) {
		return false
	}

	path := r.pathTo(target)
	d := &Dispatch{Event: ev}
	et := ev.Type()
	var fired []onceFired

	// Capture phase: root down to the target's parent.
	for _, node := range path[:len(path)-1] {
		r.invokePhase(d, node, et, PhaseCapture, &fired)
		if d.stopped {
			r.removeOnce(fired)
			return true
		}
	}

	// Target phase: capture-registered handlers first, then bubble.
	r.invokePhase(d, target, et, PhaseTarget, &fired)

	// Bubble phase: only for bubbling types, target's parent back to root.
	if et.Bubbles() && !d.stopped {
		for i := len(path) - 2; i >= 0; i-- {
			r.invokePhase(d, path[i], et, PhaseBubble, &fired)
			if d.stopped {
				break
			}
		}
	}

	r.removeOnce(fired)
	return true
}

// pathTo builds the root-to-target node sequence by walking parent links
// backward from target and reversing.
func (r *Router) pathTo(target uint64) []uint64 {
	var reversed []uint64
	for id := target; id != 0; id = r.tree.Parent(id) {
		reversed = append(reversed, id)
	}
	path := make([]uint64, len(reversed))
	for i, id := range reversed {
		path[len(path)-1-i] = id
	}
	return path
}

// invokePhase runs the handlers bound to node for et that participate in
// the given phase, in registration order. The bound list is copied first
// so handler-triggered mutation cannot disturb iteration.
func (r *Router) invokePhase(d *Dispatch, node uint64, et protocol.EventType, phase Phase, fired *[]onceFired) {
	bound := r.Bound(node, et)
	if len(bound) == 0 {
		return
	}
	ids := make([]uint64, len(bound))
	copy(ids, bound)

	d.Phase = phase
	d.Node = node

	if phase == PhaseTarget {
		// Both roles run at the target, capture-registered first.
		r.invokeMatching(d, node, et, ids, true, fired)
		r.invokeMatching(d, node, et, ids, false, fired)
		return
	}
	r.invokeMatching(d, node, et, ids, phase == PhaseCapture, fired)
}

func (r *Router) invokeMatching(d *Dispatch, node uint64, et protocol.EventType, ids []uint64, capture bool, fired *[]onceFired) {
	for _, id := range ids {
		reg := r.handlers[id]
		if reg == nil || reg.Capture != capture {
			continue
		}
		reg.Fn(d)
		if reg.Once {
			*fired = append(*fired, onceFired{node: node, eventType: et, handlerID: id})
		}
	}
}

// removeOnce tears down once-handlers after the full dispatch completes.
func (r *Router) removeOnce(fired []onceFired) {
	for _, f := range fired {
		r.Unbind(f.node, f.eventType, f.handlerID)
		r.Unregister(f.handlerID)
	}
}
