package debug

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loomui/loom/pkg/protocol"
)

// fakeSession is a canned Inspectable.
type fakeSession struct {
	windowID uint64
	batch    *protocol.UpdateBatch
}

func (f *fakeSession) WindowID() uint64 { return f.windowID }

func (f *fakeSession) Tree() *protocol.UpdateBatch { return f.batch }

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("127.0.0.1:0", nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSessionListing(t *testing.T) {
	s, ts := newTestServer(t)

	s.Attach(&fakeSession{windowID: 7, batch: &protocol.UpdateBatch{
		WindowID: 7,
		Nodes:    []protocol.NodeRecord{{ID: 1}, {ID: 2}},
	}})
	s.Attach(&fakeSession{windowID: 3, batch: &protocol.UpdateBatch{WindowID: 3}})

	resp := get(t, ts.URL+"/sessions")
	var got []sessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sessions = %d, want 2", len(got))
	}
	if got[0].WindowID != 3 || got[1].WindowID != 7 {
		t.Errorf("order = %d,%d, want 3,7", got[0].WindowID, got[1].WindowID)
	}
	if got[1].Nodes != 2 {
		t.Errorf("nodes = %d, want 2", got[1].Nodes)
	}
}

func TestTreeEndpoint(t *testing.T) {
	s, ts := newTestServer(t)

	s.Attach(&fakeSession{windowID: 9, batch: &protocol.UpdateBatch{
		WindowID: 9,
		Nodes: []protocol.NodeRecord{
			{ID: 1, Kind: "view", Children: []uint64{2}},
			{ID: 2, Kind: "text", Text: "hi"},
		},
	}})

	resp := get(t, ts.URL+"/sessions/9/tree")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var batch protocol.UpdateBatch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if batch.WindowID != 9 || len(batch.Nodes) != 2 {
		t.Errorf("batch = window %d with %d nodes", batch.WindowID, len(batch.Nodes))
	}
	if batch.Nodes[1].Text != "hi" {
		t.Errorf("text = %q, want %q", batch.Nodes[1].Text, "hi")
	}
}

func TestTreeEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t)

	if resp := get(t, ts.URL+"/sessions/abc/tree"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", resp.StatusCode)
	}
	if resp := get(t, ts.URL+"/sessions/42/tree"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", resp.StatusCode)
	}
}

func TestDetach(t *testing.T) {
	s, ts := newTestServer(t)

	s.Attach(&fakeSession{windowID: 5, batch: &protocol.UpdateBatch{WindowID: 5}})
	s.Detach(5)

	if resp := get(t, ts.URL+"/sessions/5/tree"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after detach = %d, want 404", resp.StatusCode)
	}
}
