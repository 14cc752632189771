package protocol

import (
	"errors"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the command frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize is the maximum command payload size (64 MiB). A
	// commit flushes unchunked, so the length field must cover the
	// largest realistic batched update; the cap exists to reject
	// corrupted headers, not to bound legitimate traffic.
	MaxPayloadSize = 1 << 26
)

// Opcode identifies a native engine command.
type Opcode uint8

const (
	OpCreateWindow Opcode = 0x01 // Create a native window, returns a window handle
	OpReady        Opcode = 0x02 // Readiness probe during session init
	OpApplyUpdates Opcode = 0x03 // Batched node update payload
	OpRenderNode   Opcode = 0x04 // Single node render payload
	OpPollEvents   Opcode = 0x05 // Drain pending input events
	OpReleaseError Opcode = 0x06 // Release a native-owned error payload
	OpCloseWindow  Opcode = 0x07 // Tear down a window
)

// String returns the string representation of the opcode.
func (op Opcode) String() string {
	switch op {
	case OpCreateWindow:
		return "CreateWindow"
	case OpReady:
		return "Ready"
	case OpApplyUpdates:
		return "ApplyUpdates"
	case OpRenderNode:
		return "RenderNode"
	case OpPollEvents:
		return "PollEvents"
	case OpReleaseError:
		return "ReleaseError"
	case OpCloseWindow:
		return "CloseWindow"
	default:
		return "Unknown"
	}
}

// Frame errors.
var (
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")
)

// Frame is a command frame exchanged with the native engine.
//
// Wire format (6 bytes header + variable payload):
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Opcode      │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
type Frame struct {
	Op      Opcode
	Flags   uint8
	Payload []byte
}

// EncodeTo encodes the frame, header included, using the provided encoder.
// Callers on the wire path must reject payloads over MaxPayloadSize first.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteByte(byte(f.Op))
	e.WriteByte(f.Flags)
	e.WriteUint32(uint32(len(f.Payload)))
	e.WriteBytes(f.Payload)
}

// Encode encodes the frame to a fresh byte slice.
func (f *Frame) Encode() []byte {
	e := NewEncoderWithCap(FrameHeaderSize + len(f.Payload))
	f.EncodeTo(e)
	return e.Bytes()
}

// DecodeFrame decodes a frame from bytes. The input must contain at least
// the header and the full payload it announces.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	op := Opcode(data[0])
	flags := data[1]
	length := int(uint32(data[2])<<24 | uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5]))
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}
	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])
	return &Frame{Op: op, Flags: flags, Payload: payload}, nil
}

// ReadFrame reads a complete frame from an io.Reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	op := Opcode(header[0])
	flags := header[1]
	length := int(uint32(header[2])<<24 | uint32(header[3])<<16 | uint32(header[4])<<8 | uint32(header[5]))
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return &Frame{Op: op, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

// NewFrame creates a frame with the given opcode and payload.
func NewFrame(op Opcode, payload []byte) *Frame {
	return &Frame{Op: op, Payload: payload}
}
