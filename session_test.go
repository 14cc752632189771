package loom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/pkg/events"
	"github.com/loomui/loom/pkg/host"
	"github.com/loomui/loom/pkg/host/hosttest"
	"github.com/loomui/loom/pkg/protocol"
)

func newTestSession(t *testing.T, pollInterval time.Duration) (*Session, *hosttest.Engine) {
	t.Helper()
	engine := hosttest.New()
	s, err := NewSession(context.Background(), engine, SessionConfig{
		Window:       protocol.WindowConfig{Width: 800, Height: 600, Title: "test"},
		PollInterval: pollInterval,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s, engine
}

func click(target uint64) protocol.Event {
	return &protocol.PointerEvent{Kind: protocol.EventClick, Element: target}
}

func TestCommitFlushesTreeInOneBatch(t *testing.T) {
	s, engine := newTestSession(t, time.Hour)

	root := s.CreateElement("view", "", map[string]any{"padding": "8px"})
	child := s.CreateElement("text", "hello", nil)
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := s.AppendChild(root, child); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	updates := engine.Updates()
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	batch := updates[0]
	if batch.WindowID != s.WindowID() {
		t.Errorf("batch window = %d, want %d", batch.WindowID, s.WindowID())
	}
	// Root was touched on create, mount, and append, but coalesces into
	// one record.
	if len(batch.Nodes) != 2 {
		t.Fatalf("batch nodes = %d, want 2", len(batch.Nodes))
	}
	if batch.Nodes[0].ID != root || batch.Nodes[1].ID != child {
		t.Errorf("node ids = %d,%d, want %d,%d",
			batch.Nodes[0].ID, batch.Nodes[1].ID, root, child)
	}
	if got := batch.Nodes[0].Children; len(got) != 1 || got[0] != child {
		t.Errorf("root children = %v, want [%d]", got, child)
	}

	renders := engine.Renders()
	if len(renders) != 1 {
		t.Fatalf("renders = %d, want 1", len(renders))
	}
	if renders[0].NodeID != root {
		t.Errorf("render node = %d, want %d", renders[0].NodeID, root)
	}
}

func TestCommitCoalescesLastWrite(t *testing.T) {
	s, engine := newTestSession(t, time.Hour)

	root := s.CreateElement("text", "first", nil)
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := s.SetText(root, "second"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if err := s.SetText(root, "third"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	batch := engine.Updates()[0]
	if len(batch.Nodes) != 1 {
		t.Fatalf("batch nodes = %d, want 1", len(batch.Nodes))
	}
	if batch.Nodes[0].Text != "third" {
		t.Errorf("text = %q, want %q", batch.Nodes[0].Text, "third")
	}
}

func TestCleanCommitSkipsFlushButRenders(t *testing.T) {
	s, engine := newTestSession(t, time.Hour)

	root := s.CreateElement("view", "", nil)
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("first Commit: %v", err)
	}
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("second Commit: %v", err)
	}

	if got := len(engine.Updates()); got != 1 {
		t.Errorf("updates = %d, want 1", got)
	}
	if got := len(engine.Renders()); got != 2 {
		t.Errorf("renders = %d, want 2", got)
	}
}

func TestCommitBeforeMountIsNoop(t *testing.T) {
	s, engine := newTestSession(t, time.Hour)

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := len(engine.Updates()); got != 0 {
		t.Errorf("updates = %d, want 0", got)
	}
	if got := len(engine.Renders()); got != 0 {
		t.Errorf("renders = %d, want 0", got)
	}
}

func TestRemoveChildDropsPendingAndHandlers(t *testing.T) {
	s, engine := newTestSession(t, time.Hour)

	root := s.CreateElement("view", "", nil)
	child := s.CreateElement("button", "go", map[string]any{
		"onClick": func(d *events.Dispatch) {},
	})
	grandchild := s.CreateElement("text", "label", nil)
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := s.AppendChild(root, child); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	if err := s.AppendChild(child, grandchild); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	if err := s.RemoveChild(root, child); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	batch := engine.Updates()[0]
	for _, rec := range batch.Nodes {
		if rec.ID == child || rec.ID == grandchild {
			t.Errorf("removed node %d still in flush", rec.ID)
		}
	}
	if got := s.router.HandlerCount(); got != 0 {
		t.Errorf("handlers after removal = %d, want 0", got)
	}

	// Removing again is a silent no-op.
	if err := s.RemoveChild(root, child); err != nil {
		t.Fatalf("second RemoveChild: %v", err)
	}
}

func TestInsertBeforeOrdersSiblings(t *testing.T) {
	s, engine := newTestSession(t, time.Hour)

	root := s.CreateElement("view", "", nil)
	a := s.CreateElement("text", "a", nil)
	b := s.CreateElement("text", "b", nil)
	c := s.CreateElement("text", "c", nil)
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := s.AppendChild(root, a); err != nil {
		t.Fatalf("AppendChild a: %v", err)
	}
	if err := s.AppendChild(root, c); err != nil {
		t.Fatalf("AppendChild c: %v", err)
	}
	if err := s.InsertBefore(root, b, c); err != nil {
		t.Fatalf("InsertBefore: %v", err)
	}
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	batch := engine.Updates()[0]
	var rootChildren []uint64
	for _, rec := range batch.Nodes {
		if rec.ID == root {
			rootChildren = rec.Children
		}
	}
	want := []uint64{a, b, c}
	if len(rootChildren) != len(want) {
		t.Fatalf("children = %v, want %v", rootChildren, want)
	}
	for i := range want {
		if rootChildren[i] != want[i] {
			t.Fatalf("children = %v, want %v", rootChildren, want)
		}
	}
}

func TestRemoveChildUnknownParent(t *testing.T) {
	s, _ := newTestSession(t, time.Hour)

	err := s.RemoveChild(999, 1000)
	if !errors.Is(err, errors.CodeNodeNotFound) {
		t.Fatalf("err = %v, want node not found", err)
	}
}

func TestEventRoundtripThroughPoll(t *testing.T) {
	s, engine := newTestSession(t, 2*time.Millisecond)

	fired := make(chan uint64, 1)
	root := s.CreateElement("button", "go", map[string]any{
		"onClick": func(d *events.Dispatch) {
			fired <- d.Node
		},
	})
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	engine.QueueEvents([]protocol.Event{click(root)})

	select {
	case node := <-fired:
		if node != root {
			t.Errorf("handler node = %d, want %d", node, root)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never fired")
	}
}

func TestUpdatePropsReplacesHandler(t *testing.T) {
	s, _ := newTestSession(t, time.Hour)

	var first, second atomic.Int64
	root := s.CreateElement("button", "", map[string]any{
		"onClick": func(d *events.Dispatch) { first.Add(1) },
	})
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := s.UpdateProps(root, map[string]any{
		"onClick": func(d *events.Dispatch) { second.Add(1) },
	}); err != nil {
		t.Fatalf("UpdateProps: %v", err)
	}

	if !s.DispatchEvent(click(root)) {
		t.Fatal("dispatch not delivered")
	}
	if first.Load() != 0 {
		t.Errorf("replaced handler fired %d times", first.Load())
	}
	if second.Load() != 1 {
		t.Errorf("new handler fired %d times, want 1", second.Load())
	}
	if got := s.router.HandlerCount(); got != 1 {
		t.Errorf("handler count = %d, want 1", got)
	}
}

func TestOnceHandlerFiresOnce(t *testing.T) {
	s, _ := newTestSession(t, time.Hour)

	var calls atomic.Int64
	root := s.CreateElement("button", "", map[string]any{
		"onClick": Handler{
			Fn:   func(d *events.Dispatch) { calls.Add(1) },
			Once: true,
		},
	})
	if err := s.Mount(root); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if !s.DispatchEvent(click(root)) {
		t.Fatal("first dispatch not delivered")
	}
	s.DispatchEvent(click(root))
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if got := s.router.HandlerCount(); got != 0 {
		t.Errorf("handler count after once = %d, want 0", got)
	}
}

func TestDispatchStaleTarget(t *testing.T) {
	s, _ := newTestSession(t, time.Hour)

	if s.DispatchEvent(click(12345)) {
		t.Error("dispatch to unknown target reported a handler")
	}
}

// wedgedEngine answers window creation and readiness, then swallows
// every later call without replying.
func wedgedEngine(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frame, err := protocol.DecodeFrame(data)
			if err != nil {
				return
			}
			var resp []byte
			switch frame.Op {
			case protocol.OpCreateWindow:
				resp = protocol.EncodeResultHeader(protocol.ResultHeader{
					Status: protocol.StatusOK,
					Value:  1,
				})
			case protocol.OpReady:
				resp = protocol.EncodeResultHeader(protocol.ResultHeader{
					Status: protocol.StatusOK,
				})
			default:
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, resp); err != nil {
				return
			}
		}
	}))
}

func TestCloseReturnsAgainstUnresponsiveEngine(t *testing.T) {
	srv := wedgedEngine(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := host.Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	s, err := NewSession(ctx, conn, SessionConfig{
		Window:       protocol.WindowConfig{Width: 100, Height: 100},
		PollInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Close(context.Background()) }()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Close hung against an engine that stopped responding")
	}
}

func TestCloseIsIdempotentAndClosesWindow(t *testing.T) {
	s, engine := newTestSession(t, time.Hour)

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !engine.Closed() {
		t.Error("transport not closed")
	}

	if err := s.Commit(context.Background()); !errors.Is(err, errors.CodeTransportClosed) {
		t.Errorf("commit after close = %v, want transport closed", err)
	}
}
