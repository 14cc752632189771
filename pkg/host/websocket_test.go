package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/pkg/protocol"
)

// wsEchoEngine answers CreateWindow with a fixed handle and CloseWindow
// with OK, one binary message per call.
func wsEchoEngine(t *testing.T) *httptest.Server {
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
				t.Errorf("server decode: %v", err)
				return
			}
			var resp []byte
			switch frame.Op {
			case protocol.OpCreateWindow:
				resp = protocol.EncodeResultHeader(protocol.ResultHeader{
					Status: protocol.StatusOK,
					Value:  77,
				})
			case protocol.OpApplyUpdates:
				batch, err := protocol.DecodeUpdateBatch(frame.Payload)
				if err != nil {
					t.Errorf("server batch decode: %v", err)
					resp = protocol.EncodeResultHeader(protocol.ResultHeader{
						Status: protocol.StatusInvalidArg,
					})
					break
				}
				resp = protocol.EncodeResultHeader(protocol.ResultHeader{
					Status: protocol.StatusOK,
					Value:  uint64(len(batch.Nodes)),
				})
			default:
				resp = protocol.EncodeResultHeader(protocol.ResultHeader{
					Status: protocol.StatusOK,
				})
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, resp); err != nil {
				return
			}
		}
	}))
}

func TestWebsocketRoundtrip(t *testing.T) {
	srv := wsEchoEngine(t)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	bridge := NewBridge(conn, nil)
	defer bridge.Close()

	windowID, err := bridge.CreateWindow(ctx, protocol.WindowConfig{
		Width:  100,
		Height: 100,
		Title:  "ws probe",
	})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if windowID != 77 {
		t.Errorf("window id = %d, want 77", windowID)
	}

	if err := bridge.CloseWindow(ctx, windowID); err != nil {
		t.Errorf("CloseWindow: %v", err)
	}
}

func TestWebsocketLargeCommit(t *testing.T) {
	srv := wsEchoEngine(t)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	bridge := NewBridge(conn, nil)
	defer bridge.Close()

	// Well past 64 KiB on the wire; the whole batch goes as one frame.
	const nodeCount = 600
	batch := &protocol.UpdateBatch{WindowID: 1}
	for i := 0; i < nodeCount; i++ {
		batch.Nodes = append(batch.Nodes, protocol.NodeRecord{
			ID:   uint64(i + 1),
			Kind: "text",
			Text: strings.Repeat("x", 64),
		})
	}

	header, _, err := bridge.Call(ctx, protocol.OpApplyUpdates, func(e *protocol.Encoder) {
		protocol.EncodeUpdateBatchTo(e, batch)
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if header.Value != nodeCount {
		t.Errorf("peer decoded %d nodes, want %d", header.Value, nodeCount)
	}
}

func TestCallRejectsOversizedPayload(t *testing.T) {
	bridge, _ := newTestBridge(t)

	ctx := context.Background()
	_, _, err := bridge.Call(ctx, protocol.OpApplyUpdates, func(e *protocol.Encoder) {
		e.WriteBytes(make([]byte, protocol.MaxPayloadSize+1))
	})
	if !errors.Is(err, errors.CodeNativeCallFailed) {
		t.Fatalf("err = %v, want native call failed", err)
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, "ws://127.0.0.1:1/loom")
	if !errors.Is(err, errors.CodeTransportClosed) {
		t.Fatalf("err = %v, want transport closed", err)
	}
}

func TestWebsocketClosedPeer(t *testing.T) {
	srv := wsEchoEngine(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	// Server.Close does not tear down hijacked websocket connections;
	// sever them explicitly so the peer is really gone.
	srv.CloseClientConnections()

	frame := protocol.NewFrame(protocol.OpReady, nil)
	if _, err := conn.Roundtrip(ctx, frame); !errors.Is(err, errors.CodeTransportClosed) {
		t.Fatalf("err = %v, want transport closed", err)
	}
}
