package shadow

import (
	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/pkg/protocol"
	"github.com/loomui/loom/pkg/style"
)

// Tree is the canonical id-addressed node store for one session.
//
// Tree carries no locking: all mutation happens on the framework's work
// loop, serialized by the owning session. No operation blocks.
type Tree struct {
	nodes  map[uint64]*Node
	nextID uint64
	rootID uint64
}

// New creates an empty tree. The first issued id is 1.
func New() *Tree {
	return &Tree{
		nodes:  make(map[uint64]*Node),
		nextID: 1,
	}
}

// Create allocates a node with the next id. Ids are strictly increasing
// for the life of the tree and are never reused, even after removal.
func (t *Tree) Create(kind, text string, st style.Style) uint64 {
	id := t.nextID
	t.nextID++
	t.nodes[id] = &Node{
		ID:    id,
		Kind:  kind,
		Text:  text,
		Style: st,
	}
	return id
}

// Get returns the node for an id.
func (t *Tree) Get(id uint64) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, errors.Newf(errors.CodeNodeNotFound, "id %d", id)
	}
	return n, nil
}

// Has reports whether an id is live in the tree.
func (t *Tree) Has(id uint64) bool {
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// SetRoot marks the tree root. Only the first call has effect; the first
// node ever attached to the session container stays root for the
// session's lifetime.
func (t *Tree) SetRoot(id uint64) {
	if t.rootID != 0 {
		return
	}
	if _, ok := t.nodes[id]; !ok {
		return
	}
	t.rootID = id
}

// Root returns the root node, or a NoRoot error if no node was ever
// attached.
func (t *Tree) Root() (*Node, error) {
	if t.rootID == 0 {
		return nil, errors.New(errors.CodeNoRoot)
	}
	return t.nodes[t.rootID], nil
}

// RootID returns the root id, or zero if unset.
func (t *Tree) RootID() uint64 {
	return t.rootID
}

// AppendChild attaches child to the end of parent's child list. A child
// already attached elsewhere is detached first, so every non-root node
// appears in exactly one parent's list.
func (t *Tree) AppendChild(parentID, childID uint64) error {
	return t.insert(parentID, childID, NoParent)
}

// InsertBefore attaches child to parent's list in front of the sibling
// beforeID. An unknown sibling appends instead.
func (t *Tree) InsertBefore(parentID, childID, beforeID uint64) error {
	return t.insert(parentID, childID, beforeID)
}

func (t *Tree) insert(parentID, childID, beforeID uint64) error {
	parent, ok := t.nodes[parentID]
	if !ok {
		return errors.Newf(errors.CodeNodeNotFound, "parent id %d", parentID)
	}
	child, ok := t.nodes[childID]
	if !ok {
		return errors.Newf(errors.CodeNodeNotFound, "child id %d", childID)
	}
	if t.isAncestor(childID, parentID) || parentID == childID {
		return errors.Newf(errors.CodeTreeCycle, "node %d under %d", childID, parentID)
	}

	t.detach(child)

	idx := len(parent.Children)
	if beforeID != NoParent {
		for i, c := range parent.Children {
			if c == beforeID {
				idx = i
				break
			}
		}
	}
	parent.Children = append(parent.Children, 0)
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = childID
	child.Parent = parentID
	return nil
}

// RemoveChild detaches child from parent and discards the child's subtree
// from the store. A child not present in the parent's list is a silent
// no-op; an unknown parent is an error.
//
// Callers owning handler state must run event cleanup for the subtree
// before calling this; once removed, the node data is gone.
func (t *Tree) RemoveChild(parentID, childID uint64) error {
	parent, ok := t.nodes[parentID]
	if !ok {
		return errors.Newf(errors.CodeNodeNotFound, "parent id %d", parentID)
	}
	found := false
	for i, c := range parent.Children {
		if c == childID {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	t.discard(childID)
	return nil
}

// Descendants returns the ids of every node below id, depth first,
// children before parents. The id itself is not included.
func (t *Tree) Descendants(id uint64) []uint64 {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	var out []uint64
	for _, c := range n.Children {
		out = append(out, t.Descendants(c)...)
		out = append(out, c)
	}
	return out
}

// SetText updates a node's text content.
func (t *Tree) SetText(id uint64, text string) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.Newf(errors.CodeNodeNotFound, "id %d", id)
	}
	n.Text = text
	return nil
}

// SetStyle replaces a node's style record.
func (t *Tree) SetStyle(id uint64, st style.Style) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.Newf(errors.CodeNodeNotFound, "id %d", id)
	}
	n.Style = st
	return nil
}

// SetHandler binds a handler id for an event type on the node.
func (t *Tree) SetHandler(id uint64, et protocol.EventType, handlerID uint64) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.Newf(errors.CodeNodeNotFound, "id %d", id)
	}
	if n.Handlers == nil {
		n.Handlers = make(map[protocol.EventType]uint64)
	}
	n.Handlers[et] = handlerID
	return nil
}

// RemoveHandler unbinds the handler for an event type on the node.
func (t *Tree) RemoveHandler(id uint64, et protocol.EventType) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.Newf(errors.CodeNodeNotFound, "id %d", id)
	}
	delete(n.Handlers, et)
	return nil
}

// Parent returns the parent id of a node, or NoParent if the node is
// detached, the root, or unknown. Unknown ids are tolerated: dispatch
// paths are built against ids that may have been removed between event
// emission and delivery.
func (t *Tree) Parent(id uint64) uint64 {
	n, ok := t.nodes[id]
	if !ok {
		return NoParent
	}
	return n.Parent
}

// Reset clears all state and reinitializes the id counter.
func (t *Tree) Reset() {
	t.nodes = make(map[uint64]*Node)
	t.nextID = 1
	t.rootID = 0
}

// detach removes child from its current parent's list, if any.
func (t *Tree) detach(child *Node) {
	if child.Parent == NoParent {
		return
	}
	if p, ok := t.nodes[child.Parent]; ok {
		for i, c := range p.Children {
			if c == child.ID {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	child.Parent = NoParent
}

// discard deletes a subtree from the store.
func (t *Tree) discard(id uint64) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.Children {
		t.discard(c)
	}
	delete(t.nodes, id)
}

// isAncestor reports whether ancestor appears on the parent chain of id.
func (t *Tree) isAncestor(ancestor, id uint64) bool {
	for id != NoParent {
		n, ok := t.nodes[id]
		if !ok {
			return false
		}
		if n.Parent == ancestor {
			return true
		}
		id = n.Parent
	}
	return false
}
