package protocol

import (
	"bytes"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<63 - 1, ^uint64(0)}
	for _, v := range values {
		e := NewEncoder()
		e.WriteUvarint(v)
		d := NewDecoder(e.Bytes())
		got, err := d.ReadUvarint()
		if err != nil {
			t.Fatalf("ReadUvarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip = %d, want %d", got, v)
		}
		if !d.EOF() {
			t.Errorf("bytes left over for %d", v)
		}
	}
}

func TestSvarintRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, -64, 63, -1 << 40, 1 << 40}
	for _, v := range values {
		e := NewEncoder()
		e.WriteSvarint(v)
		d := NewDecoder(e.Bytes())
		got, err := d.ReadSvarint()
		if err != nil {
			t.Fatalf("ReadSvarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip = %d, want %d", got, v)
		}
	}
}

func TestDecoderTruncated(t *testing.T) {
	d := NewDecoder([]byte{0x80}) // continuation bit with no next byte
	if _, err := d.ReadUvarint(); err == nil {
		t.Error("expected error for truncated varint")
	}
}

func TestReadStringAllocationLimit(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxAllocation + 1)
	d := NewDecoder(e.Bytes())
	if _, err := d.ReadString(); err != ErrAllocationTooLarge {
		t.Errorf("err = %v, want ErrAllocationTooLarge", err)
	}
}

func TestReadCountLimit(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxCollectionCount + 1)
	d := NewDecoder(e.Bytes())
	if _, err := d.ReadCount(); err != ErrCollectionTooLarge {
		t.Errorf("err = %v, want ErrCollectionTooLarge", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	f := NewFrame(OpApplyUpdates, []byte{1, 2, 3})
	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Op != OpApplyUpdates {
		t.Errorf("Op = %v, want ApplyUpdates", got.Op)
	}
	if !bytes.Equal(got.Payload, []byte{1, 2, 3}) {
		t.Errorf("Payload = %v, want [1 2 3]", got.Payload)
	}
}

func TestFrameRoundTripLargePayload(t *testing.T) {
	// Payloads past 64 KiB must survive framing intact; a commit flushes
	// one unchunked payload however many nodes it carries.
	payload := make([]byte, 70000)
	for i := range payload {
		payload[i] = byte(i)
	}
	f := NewFrame(OpApplyUpdates, payload)

	got, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(got.Payload) != len(payload) {
		t.Fatalf("payload length = %d, want %d", len(got.Payload), len(payload))
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Error("payload corrupted through framing")
	}
}

func TestDecodeFrameRejectsOversizedLength(t *testing.T) {
	header := []byte{byte(OpApplyUpdates), 0, 0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := DecodeFrame(header); err != ErrFrameTooLarge {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestFrameTooLarge(t *testing.T) {
	f := NewFrame(OpPollEvents, make([]byte, MaxPayloadSize+1))
	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != ErrFrameTooLarge {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestResultHeaderSuccess(t *testing.T) {
	data := EncodeResultHeader(ResultHeader{Status: StatusOK, Value: 0xDEADBEEF})
	body := append(data, 0xAA)
	h, rest, err := DecodeResultHeader(body)
	if err != nil {
		t.Fatalf("DecodeResultHeader: %v", err)
	}
	if !h.OK() {
		t.Error("OK() = false, want true")
	}
	if h.Value != 0xDEADBEEF {
		t.Errorf("Value = %x, want deadbeef", h.Value)
	}
	if len(rest) != 1 || rest[0] != 0xAA {
		t.Errorf("rest = %v, want [aa]", rest)
	}
}

func TestResultHeaderFailure(t *testing.T) {
	data := EncodeResultHeader(ResultHeader{Status: StatusUnknownNode, Value: 77})
	h, _, err := DecodeResultHeader(data)
	if err != nil {
		t.Fatalf("DecodeResultHeader: %v", err)
	}
	if h.OK() {
		t.Error("OK() = true for failure status")
	}
	if h.ErrorRef() != 77 {
		t.Errorf("ErrorRef = %d, want 77", h.ErrorRef())
	}
	if h.Status.String() != "UnknownNode" {
		t.Errorf("Status = %q, want UnknownNode", h.Status.String())
	}
}

func TestResultHeaderShort(t *testing.T) {
	if _, _, err := DecodeResultHeader(make([]byte, 8)); err == nil {
		t.Error("expected error for short header")
	}
}
