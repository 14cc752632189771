// Package batch coalesces per-commit node touches into a single flush.
package batch

import (
	"github.com/loomui/loom/pkg/protocol"
	"github.com/loomui/loom/pkg/shadow"
)

// Flusher receives the batched update payload for one commit.
type Flusher interface {
	ApplyUpdates(batch *protocol.UpdateBatch) error
}

// Batcher collects dirty node snapshots for one logical commit, keyed by
// id. Repeat touches of the same id within a commit overwrite: only the
// final state is sent, exactly once, at flush.
type Batcher struct {
	windowID uint64
	pending  map[uint64]*shadow.Node
	order    []uint64
}

// New creates a batcher for the given native window.
func New(windowID uint64) *Batcher {
	return &Batcher{
		windowID: windowID,
		pending:  make(map[uint64]*shadow.Node),
	}
}

// Touch records a node's current state. The node is snapshotted so later
// same-commit mutations do not alias the recorded entry.
func (b *Batcher) Touch(n *shadow.Node) {
	if _, seen := b.pending[n.ID]; !seen {
		b.order = append(b.order, n.ID)
	}
	b.pending[n.ID] = n.Snapshot()
}

// Drop discards a pending entry, if present. Used when a touched node is
// removed later in the same commit; the engine must not receive updates
// for nodes that no longer exist.
func (b *Batcher) Drop(id uint64) {
	if _, ok := b.pending[id]; !ok {
		return
	}
	delete(b.pending, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Pending returns the number of dirty nodes.
func (b *Batcher) Pending() int {
	return len(b.pending)
}

// Flush sends every dirty node's final state in one call and clears the
// pending set. A commit with zero touches skips the native call entirely.
// Flush applies no chunking: however large the pending set, it goes out
// as a single payload.
func (b *Batcher) Flush(f Flusher) error {
	if len(b.pending) == 0 {
		return nil
	}

	nodes := make([]protocol.NodeRecord, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.pending[id].Record())
	}

	b.pending = make(map[uint64]*shadow.Node)
	b.order = b.order[:0]

	return f.ApplyUpdates(&protocol.UpdateBatch{
		WindowID: b.windowID,
		Nodes:    nodes,
	})
}
