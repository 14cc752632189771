// Package events routes decoded native input events into registered
// handlers using capture/target/bubble propagation over the shadow tree.
//
// The router owns handler registrations and the per-node handler index.
// It does not duplicate tree structure: dispatch paths are built by
// reading parent links from the tree itself, so structural mutations
// cannot leave the router's idea of ancestry stale.
package events

import (
	"github.com/loomui/loom/pkg/protocol"
)

// Tree is the subset of the shadow tree the router reads while building
// dispatch paths.
type Tree interface {
	// Parent returns the parent id of a node, or zero for roots,
	// detached nodes, and unknown ids.
	Parent(id uint64) uint64

	// Has reports whether an id is live.
	Has(id uint64) bool
}

// HandlerFunc is an event callback. Handlers may call
// Dispatch.StopPropagation to halt phase traversal, and may issue new
// framework edits; they must not mutate the router mid-dispatch.
type HandlerFunc func(d *Dispatch)

// Options configure a handler registration.
type Options struct {
	// Capture runs the handler during the capture phase (and at target,
	// before bubble-registered handlers).
	Capture bool

	// Once removes the registration after its first invocation.
	Once bool
}

// Registration is a registered handler, looked up only by id.
type Registration struct {
	ID      uint64
	Fn      HandlerFunc
	Capture bool
	Once    bool
}

// nodeIndex is the per-node bookkeeping: event type to ordered handler id
// list. Parent links live on the tree, not here.
type nodeIndex struct {
	byType map[protocol.EventType][]uint64
}

// Router is the per-session handler registry and dispatcher.
type Router struct {
	tree     Tree
	handlers map[uint64]*Registration
	nodes    map[uint64]*nodeIndex
	nextID   uint64
}

// NewRouter creates a router reading parent links from tree.
func NewRouter(tree Tree) *Router {
	return &Router{
		tree:     tree,
		handlers: make(map[uint64]*Registration),
		nodes:    make(map[uint64]*nodeIndex),
		nextID:   1,
	}
}

// Register adds a handler and returns its id. Handler ids are
// monotonically increasing and never reused.
func (r *Router) Register(fn HandlerFunc, opts Options) uint64 {
	id := r.nextID
	r.nextID++
	r.handlers[id] = &Registration{
		ID:      id,
		Fn:      fn,
		Capture: opts.Capture,
		Once:    opts.Once,
	}
	return id
}

// Unregister removes a handler registration. Removing an unknown id is a
// no-op; once-handler teardown can race its own cleanup and double
// removal must stay safe.
func (r *Router) Unregister(id uint64) {
	delete(r.handlers, id)
}

// Handler returns the registration for an id, or nil.
func (r *Router) Handler(id uint64) *Registration {
	return r.handlers[id]
}

// HandlerCount returns the number of live registrations.
func (r *Router) HandlerCount() int {
	return len(r.handlers)
}

// Bind attaches a registered handler to a node for an event type.
// Binding is idempotent: a handler id already in the per-type list is not
// duplicated.
func (r *Router) Bind(nodeID uint64, et protocol.EventType, handlerID uint64) {
	idx := r.nodes[nodeID]
	if idx == nil {
		idx = &nodeIndex{byType: make(map[protocol.EventType][]uint64)}
		r.nodes[nodeID] = idx
	}
	for _, id := range idx.byType[et] {
		if id == handlerID {
			return
		}
	}
	idx.byType[et] = append(idx.byType[et], handlerID)
}

// Unbind detaches a handler from a node/type. Unknown node, type, or
// handler id is a no-op.
func (r *Router) Unbind(nodeID uint64, et protocol.EventType, handlerID uint64) {
	idx := r.nodes[nodeID]
	if idx == nil {
		return
	}
	list := idx.byType[et]
	for i, id := range list {
		if id == handlerID {
			idx.byType[et] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(idx.byType[et]) == 0 {
		delete(idx.byType, et)
	}
}

// Bound returns the ordered handler ids for a node/type. The returned
// slice is the live list; callers must not hold it across mutations.
func (r *Router) Bound(nodeID uint64, et protocol.EventType) []uint64 {
	idx := r.nodes[nodeID]
	if idx == nil {
		return nil
	}
	return idx.byType[et]
}

// CleanupElement unregisters every handler referenced by the node and
// drops its index entry. Called when a node leaves the tree.
func (r *Router) CleanupElement(nodeID uint64) {
	idx := r.nodes[nodeID]
	if idx == nil {
		return
	}
	for _, list := range idx.byType {
		for _, handlerID := range list {
			delete(r.handlers, handlerID)
		}
	}
	delete(r.nodes, nodeID)
}

// CleanupElementTree cleans the given descendants first (callers pass
// them children-before-parents), then the node itself. After it returns,
// the registry holds no entries for the subtree.
func (r *Router) CleanupElementTree(nodeID uint64, descendants []uint64) {
	for _, id := range descendants {
		r.CleanupElement(id)
	}
	r.CleanupElement(nodeID)
}
