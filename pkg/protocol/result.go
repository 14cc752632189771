package protocol

import "io"

// Result header layout. Every native call answers with a fixed 16-byte
// header, optionally followed by a variable body (e.g. a polled event
// batch).
//
//	offset 0: status code (4 bytes, big-endian); 0 means success
//	offset 4: reserved (4 bytes)
//	offset 8: on success, an 8-byte payload value (handle or inline value)
//	          on failure, an 8-byte reference to a native-owned error
//	          payload that must be released before the error is surfaced
const (
	ResultHeaderSize   = 16
	ResultStatusOffset = 0
	ResultValueOffset  = 8
)

// Status is the native call status code.
type Status uint32

const (
	StatusOK            Status = 0
	StatusInvalidArg    Status = 1
	StatusUnknownWindow Status = 2
	StatusUnknownNode   Status = 3
	StatusNotReady      Status = 4
	StatusInternal      Status = 5
)

// String returns the string representation of the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidArg:
		return "InvalidArg"
	case StatusUnknownWindow:
		return "UnknownWindow"
	case StatusUnknownNode:
		return "UnknownNode"
	case StatusNotReady:
		return "NotReady"
	case StatusInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// ResultHeader is the decoded fixed-layout call result header.
type ResultHeader struct {
	Status Status

	// Value holds the success payload (a handle or inline value) when
	// Status is StatusOK, and the native error reference otherwise.
	Value uint64
}

// OK reports whether the call succeeded.
func (h ResultHeader) OK() bool {
	return h.Status == StatusOK
}

// ErrorRef returns the native error reference for a failed call.
// The caller owns releasing it.
func (h ResultHeader) ErrorRef() uint64 {
	return h.Value
}

// EncodeResultHeader encodes a result header (used by test fakes and
// in-process hosts).
func EncodeResultHeader(h ResultHeader) []byte {
	e := NewEncoderWithCap(ResultHeaderSize)
	e.WriteUint32(uint32(h.Status))
	e.WriteUint32(0) // reserved
	e.WriteUint64(h.Value)
	return e.Bytes()
}

// DecodeResultHeader splits a call response into its header and the
// remaining body bytes.
func DecodeResultHeader(data []byte) (ResultHeader, []byte, error) {
	if len(data) < ResultHeaderSize {
		return ResultHeader{}, nil, io.ErrUnexpectedEOF
	}
	d := NewDecoder(data[:ResultHeaderSize])
	status, err := d.ReadUint32()
	if err != nil {
		return ResultHeader{}, nil, err
	}
	if _, err := d.ReadUint32(); err != nil { // reserved
		return ResultHeader{}, nil, err
	}
	value, err := d.ReadUint64()
	if err != nil {
		return ResultHeader{}, nil, err
	}
	return ResultHeader{Status: Status(status), Value: value}, data[ResultHeaderSize:], nil
}
