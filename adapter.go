package loom

import (
	"strings"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/pkg/events"
	"github.com/loomui/loom/pkg/protocol"
	"github.com/loomui/loom/pkg/style"
)

// Handler is the long form of an event callback in a property bag. The
// short form is a bare func(*events.Dispatch), which registers as a
// bubble-phase handler.
type Handler struct {
	Fn      events.HandlerFunc
	Capture bool
	Once    bool
}

// handlerProps maps the property keys the framework emits to wire event
// types. Keys not listed here are treated as style input.
var handlerProps = map[string]protocol.EventType{
	"onPointerDown":  protocol.EventPointerDown,
	"onPointerUp":    protocol.EventPointerUp,
	"onPointerMove":  protocol.EventPointerMove,
	"onClick":        protocol.EventClick,
	"onPointerEnter": protocol.EventPointerEnter,
	"onPointerLeave": protocol.EventPointerLeave,
	"onKeyDown":      protocol.EventKeyDown,
	"onKeyUp":        protocol.EventKeyUp,
	"onFocus":        protocol.EventFocus,
	"onBlur":         protocol.EventBlur,
	"onFocusIn":      protocol.EventFocusIn,
	"onFocusOut":     protocol.EventFocusOut,
	"onScroll":       protocol.EventScroll,
	"onWheel":        protocol.EventWheel,
}

// CreateElement allocates a new shadow node from a property bag. Visual
// properties are resolved into the node's style; "on"-prefixed properties
// become event handler bindings. The node starts detached and is queued
// for the next commit.
func (s *Session) CreateElement(kind, text string, props map[string]any) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.tree.Create(kind, text, style.Resolve(props))
	s.applyHandlers(id, props)
	s.touch(id)
	return id
}

// Mount attaches a detached node as the session's root. Only the first
// node ever mounted becomes root; once set, the root is permanent and
// later calls are ignored.
func (s *Session) Mount(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.Has(id) {
		return errors.Newf(errors.CodeNodeNotFound, "id %d", id)
	}
	s.tree.SetRoot(id)
	s.touch(id)
	return nil
}

// AppendChild attaches child at the end of parent's child list,
// detaching it from any previous parent first.
func (s *Session) AppendChild(parentID, childID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.tree.Parent(childID)
	if err := s.tree.AppendChild(parentID, childID); err != nil {
		return err
	}
	s.touchMoved(parentID, childID, prev)
	return nil
}

// InsertBefore attaches child into parent's child list in front of the
// sibling beforeID. If beforeID is not currently a child of parent, the
// child is appended instead.
func (s *Session) InsertBefore(parentID, childID, beforeID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.tree.Parent(childID)
	if err := s.tree.InsertBefore(parentID, childID, beforeID); err != nil {
		return err
	}
	s.touchMoved(parentID, childID, prev)
	return nil
}

// RemoveChild detaches child from parent and discards the whole subtree:
// node data, handler registrations, and any pending mutations for the
// removed ids. Removing a node that is not currently a child of parent
// is a silent no-op, so double-removal during teardown stays safe.
func (s *Session) RemoveChild(parentID, childID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.Has(childID) || s.tree.Parent(childID) != parentID {
		// Validate the parent even when the removal itself no-ops.
		if !s.tree.Has(parentID) {
			return errors.Newf(errors.CodeNodeNotFound, "id %d", parentID)
		}
		return nil
	}

	descendants := s.tree.Descendants(childID)
	s.router.CleanupElementTree(childID, descendants)
	if err := s.tree.RemoveChild(parentID, childID); err != nil {
		return err
	}
	for _, id := range descendants {
		s.batcher.Drop(id)
	}
	s.batcher.Drop(childID)
	s.touch(parentID)
	return nil
}

// SetText replaces a node's text content.
func (s *Session) SetText(id uint64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.SetText(id, text); err != nil {
		return err
	}
	s.touch(id)
	return nil
}

// UpdateProps re-resolves a node's style from a fresh property bag and
// replaces its event handlers for every "on"-prefixed key present. A
// handler key with a nil value unbinds that event type. Style properties
// absent from the bag fall back to defaults; callers pass complete bags,
// not deltas.
func (s *Session) UpdateProps(id uint64, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.SetStyle(id, style.Resolve(props)); err != nil {
		return err
	}
	s.applyHandlers(id, props)
	s.touch(id)
	return nil
}

// Tree exposes read access to the shadow tree for inspection surfaces.
// Callers must treat the tree as read-only and must not retain node
// pointers across session edits.
func (s *Session) Tree() *protocol.UpdateBatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := &protocol.UpdateBatch{WindowID: s.windowID}
	rootID := s.tree.RootID()
	if rootID == 0 {
		return batch
	}
	for _, id := range append(s.tree.Descendants(rootID), rootID) {
		n, err := s.tree.Get(id)
		if err != nil {
			continue
		}
		batch.Nodes = append(batch.Nodes, n.Record())
	}
	return batch
}

// applyHandlers registers and binds every handler property in the bag,
// unbinding whatever the node previously had for that event type.
// Callers hold s.mu.
func (s *Session) applyHandlers(id uint64, props map[string]any) {
	n, err := s.tree.Get(id)
	if err != nil {
		return
	}
	for key, v := range props {
		if !strings.HasPrefix(key, "on") {
			continue
		}
		et, ok := handlerProps[key]
		if !ok {
			s.log.Warn("unknown handler property", "key", key, "node", id)
			continue
		}

		if old, bound := n.Handlers[et]; bound {
			s.router.Unbind(id, et, old)
			s.router.Unregister(old)
			s.tree.RemoveHandler(id, et)
		}

		var h Handler
		switch fn := v.(type) {
		case nil:
			continue
		case Handler:
			h = fn
		case events.HandlerFunc:
			h = Handler{Fn: fn}
		case func(*events.Dispatch):
			h = Handler{Fn: fn}
		default:
			s.log.Warn("handler property has unusable value", "key", key, "node", id)
			continue
		}
		if h.Fn == nil {
			continue
		}

		hid := s.router.Register(h.Fn, events.Options{Capture: h.Capture, Once: h.Once})
		s.router.Bind(id, et, hid)
		s.tree.SetHandler(id, et, hid)
	}
}

// touch queues a node for the next flush. Callers hold s.mu.
func (s *Session) touch(id uint64) {
	n, err := s.tree.Get(id)
	if err != nil {
		return
	}
	s.batcher.Touch(n)
}

// touchMoved queues the nodes affected by a reparenting edit: the new
// parent, the moved child, and the previous parent whose child list
// shrank. Callers hold s.mu.
func (s *Session) touchMoved(parentID, childID, prevParentID uint64) {
	s.touch(parentID)
	s.touch(childID)
	if prevParentID != 0 && prevParentID != parentID {
		s.touch(prevParentID)
	}
}
