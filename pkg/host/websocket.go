package host

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/pkg/protocol"
)

// wsWriteTimeout bounds a single frame write to a wedged engine.
const wsWriteTimeout = 10 * time.Second

// WSConn carries the native call boundary over a WebSocket, for engines
// running out of process. Each Roundtrip is one binary message out and
// one binary message back.
type WSConn struct {
	conn *websocket.Conn
}

// Dial connects to a native engine endpoint, e.g. "ws://127.0.0.1:7070/loom".
func Dial(ctx context.Context, url string) (*WSConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Newf(errors.CodeTransportClosed, "dial %s", url).Wrap(err)
	}
	return &WSConn{conn: conn}, nil
}

// NewWSConn wraps an established WebSocket connection.
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// Roundtrip implements Conn.
func (w *WSConn) Roundtrip(ctx context.Context, frame *protocol.Frame) ([]byte, error) {
	deadline := time.Now().Add(wsWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return nil, errors.New(errors.CodeTransportClosed).Wrap(err)
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		return nil, errors.New(errors.CodeTransportClosed).Wrap(err)
	}

	if d, ok := ctx.Deadline(); ok {
		if err := w.conn.SetReadDeadline(d); err != nil {
			return nil, errors.New(errors.CodeTransportClosed).Wrap(err)
		}
	} else {
		if err := w.conn.SetReadDeadline(time.Time{}); err != nil {
			return nil, errors.New(errors.CodeTransportClosed).Wrap(err)
		}
	}
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return nil, errors.New(errors.CodeTransportClosed).Wrap(err)
	}
	return data, nil
}

// Close implements Conn.
func (w *WSConn) Close() error {
	return w.conn.Close()
}
