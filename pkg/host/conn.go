package host

import (
	"context"

	"github.com/loomui/loom/pkg/protocol"
)

// Conn is the raw transport across the native call boundary. One command
// frame goes out; one response (result header plus optional body) comes
// back. Roundtrip blocks for the call duration.
//
// Implementations need not be safe for concurrent Roundtrip calls; the
// bridge serializes access.
type Conn interface {
	Roundtrip(ctx context.Context, frame *protocol.Frame) ([]byte, error)
	Close() error
}
