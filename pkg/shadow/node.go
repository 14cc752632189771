// Package shadow maintains the retained, id-addressed mirror of UI nodes
// that is kept in sync with the native engine.
//
// The tree is the single owner of node data. Everything else refers to
// nodes by id; the parent link stored on the node itself is the one source
// of truth for ancestry, which the event router reads when building
// dispatch paths.
package shadow

import (
	"github.com/loomui/loom/pkg/protocol"
	"github.com/loomui/loom/pkg/style"
)

// NoParent marks a node with no parent. Node ids start at 1, so the zero
// id is never issued.
const NoParent uint64 = 0

// Node is a retained UI node. Owned exclusively by the Tree; callers hold
// ids, not node pointers, outside of short-lived reads.
type Node struct {
	ID       uint64
	Kind     string
	Text     string
	Parent   uint64
	Children []uint64
	Style    style.Style
	Handlers map[protocol.EventType]uint64
}

// Snapshot returns a deep copy of the node. Batched state must not alias
// live tree state, or later mutations in the same commit would bleed into
// an already-recorded snapshot.
func (n *Node) Snapshot() *Node {
	cp := *n
	if n.Children != nil {
		cp.Children = make([]uint64, len(n.Children))
		copy(cp.Children, n.Children)
	}
	if n.Handlers != nil {
		cp.Handlers = make(map[protocol.EventType]uint64, len(n.Handlers))
		for k, v := range n.Handlers {
			cp.Handlers[k] = v
		}
	}
	return &cp
}

// Record converts the node into its wire representation.
func (n *Node) Record() protocol.NodeRecord {
	rec := protocol.NodeRecord{
		ID:    n.ID,
		Kind:  n.Kind,
		Text:  n.Text,
		Style: n.Style,
	}
	if len(n.Children) > 0 {
		rec.Children = make([]uint64, len(n.Children))
		copy(rec.Children, n.Children)
	}
	if len(n.Handlers) > 0 {
		rec.Handlers = make(map[protocol.EventType]uint64, len(n.Handlers))
		for k, v := range n.Handlers {
			rec.Handlers[k] = v
		}
	}
	return rec
}
