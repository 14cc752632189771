package protocol

import "github.com/loomui/loom/pkg/style"

// NodeRecord is one node's snapshot within a batched update payload.
type NodeRecord struct {
	ID       uint64
	Kind     string
	Text     string
	Children []uint64
	Style    style.Style
	Handlers map[EventType]uint64
}

// UpdateBatch is the per-commit batched update payload: every node touched
// during the commit, final state only, sent once.
type UpdateBatch struct {
	WindowID uint64
	Nodes    []NodeRecord
}

// RenderRequest is the single-node render payload sent after a flush.
type RenderRequest struct {
	WindowID   uint64
	NodeID     uint64
	Kind       string
	Text       string
	ChildCount uint32
	Children   []uint64
}

// WindowConfig is the opaque session creation payload. The engine owns the
// interpretation; values pass through unmodified.
type WindowConfig struct {
	Width     uint32
	Height    uint32
	Title     string
	Resizable bool
}

// EncodeWindowConfigTo encodes a window creation payload.
func EncodeWindowConfigTo(e *Encoder, cfg WindowConfig) {
	e.WriteUint32(cfg.Width)
	e.WriteUint32(cfg.Height)
	e.WriteString(cfg.Title)
	e.WriteBool(cfg.Resizable)
}

// DecodeWindowConfig decodes a window creation payload.
func DecodeWindowConfig(d *Decoder) (WindowConfig, error) {
	var cfg WindowConfig
	var err error
	if cfg.Width, err = d.ReadUint32(); err != nil {
		return cfg, err
	}
	if cfg.Height, err = d.ReadUint32(); err != nil {
		return cfg, err
	}
	if cfg.Title, err = d.ReadString(); err != nil {
		return cfg, err
	}
	if cfg.Resizable, err = d.ReadBool(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EncodeUpdateBatchTo encodes a batched update payload.
func EncodeUpdateBatchTo(e *Encoder, b *UpdateBatch) {
	e.WriteUvarint(b.WindowID)
	e.WriteUvarint(uint64(len(b.Nodes)))
	for i := range b.Nodes {
		encodeNodeRecord(e, &b.Nodes[i])
	}
}

// DecodeUpdateBatch decodes a batched update payload.
func DecodeUpdateBatch(data []byte) (*UpdateBatch, error) {
	d := NewDecoder(data)
	windowID, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCount()
	if err != nil {
		return nil, err
	}
	b := &UpdateBatch{WindowID: windowID, Nodes: make([]NodeRecord, 0, count)}
	for i := 0; i < count; i++ {
		rec, err := decodeNodeRecord(d)
		if err != nil {
			return nil, err
		}
		b.Nodes = append(b.Nodes, rec)
	}
	return b, nil
}

func encodeNodeRecord(e *Encoder, n *NodeRecord) {
	e.WriteUvarint(n.ID)
	e.WriteString(n.Kind)
	e.WriteString(n.Text)
	e.WriteUvarint(uint64(len(n.Children)))
	for _, c := range n.Children {
		e.WriteUvarint(c)
	}
	encodeStyle(e, &n.Style)
	e.WriteUvarint(uint64(len(n.Handlers)))
	for et, hid := range n.Handlers {
		e.WriteByte(byte(et))
		e.WriteUvarint(hid)
	}
}

func decodeNodeRecord(d *Decoder) (NodeRecord, error) {
	var n NodeRecord
	var err error
	if n.ID, err = d.ReadUvarint(); err != nil {
		return n, err
	}
	if n.Kind, err = d.ReadString(); err != nil {
		return n, err
	}
	if n.Text, err = d.ReadString(); err != nil {
		return n, err
	}
	childCount, err := d.ReadCount()
	if err != nil {
		return n, err
	}
	if childCount > 0 {
		n.Children = make([]uint64, 0, childCount)
		for i := 0; i < childCount; i++ {
			c, err := d.ReadUvarint()
			if err != nil {
				return n, err
			}
			n.Children = append(n.Children, c)
		}
	}
	if n.Style, err = decodeStyle(d); err != nil {
		return n, err
	}
	handlerCount, err := d.ReadCount()
	if err != nil {
		return n, err
	}
	if handlerCount > 0 {
		n.Handlers = make(map[EventType]uint64, handlerCount)
		for i := 0; i < handlerCount; i++ {
			et, err := d.ReadByte()
			if err != nil {
				return n, err
			}
			hid, err := d.ReadUvarint()
			if err != nil {
				return n, err
			}
			n.Handlers[EventType(et)] = hid
		}
	}
	return n, nil
}

// Style flag bits within the fixed-layout style record.
const (
	styleFlagBackground = 0x01
	styleFlagTextColor  = 0x02
	styleFlagShadow     = 0x04
)

// encodeStyle writes a style record with a fixed scalar layout: every
// field is present, presence flags are a single byte.
func encodeStyle(e *Encoder, s *style.Style) {
	var flags byte
	if s.HasBackground {
		flags |= styleFlagBackground
	}
	if s.HasTextColor {
		flags |= styleFlagTextColor
	}
	if s.HasShadow {
		flags |= styleFlagShadow
	}
	e.WriteByte(flags)

	e.WriteFloat64(s.Width)
	e.WriteFloat64(s.Height)
	encodeSides(e, s.Margin)
	encodeSides(e, s.Padding)
	encodeSides(e, s.Inset)
	e.WriteFloat64(s.BorderWidth)
	e.WriteByte(byte(s.BorderStyle))
	e.WriteUint32(uint32(s.BorderColor))
	e.WriteUint32(uint32(s.Background))
	e.WriteUint32(uint32(s.TextColor))
	e.WriteFloat64(s.FontSize)
	e.WriteFloat64(s.Opacity)
	e.WriteFloat64(s.ShadowOffsetX)
	e.WriteFloat64(s.ShadowOffsetY)
	e.WriteFloat64(s.ShadowBlur)
	e.WriteUint32(uint32(s.ShadowColor))
}

func encodeSides(e *Encoder, s style.Sides) {
	e.WriteFloat64(s.Top)
	e.WriteFloat64(s.Right)
	e.WriteFloat64(s.Bottom)
	e.WriteFloat64(s.Left)
}

func decodeSides(d *Decoder) (style.Sides, error) {
	var s style.Sides
	var err error
	if s.Top, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.Right, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.Bottom, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.Left, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	return s, nil
}

func decodeStyle(d *Decoder) (style.Style, error) {
	var s style.Style
	flags, err := d.ReadByte()
	if err != nil {
		return s, err
	}
	s.HasBackground = flags&styleFlagBackground != 0
	s.HasTextColor = flags&styleFlagTextColor != 0
	s.HasShadow = flags&styleFlagShadow != 0

	if s.Width, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.Height, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.Margin, err = decodeSides(d); err != nil {
		return s, err
	}
	if s.Padding, err = decodeSides(d); err != nil {
		return s, err
	}
	if s.Inset, err = decodeSides(d); err != nil {
		return s, err
	}
	if s.BorderWidth, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	bs, err := d.ReadByte()
	if err != nil {
		return s, err
	}
	s.BorderStyle = style.BorderStyle(bs)
	if err = decodeColor(d, &s.BorderColor); err != nil {
		return s, err
	}
	if err = decodeColor(d, &s.Background); err != nil {
		return s, err
	}
	if err = decodeColor(d, &s.TextColor); err != nil {
		return s, err
	}
	if s.FontSize, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.Opacity, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.ShadowOffsetX, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.ShadowOffsetY, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if s.ShadowBlur, err = d.ReadFloat64(); err != nil {
		return s, err
	}
	if err = decodeColor(d, &s.ShadowColor); err != nil {
		return s, err
	}
	return s, nil
}

func decodeColor(d *Decoder, c *style.Color) error {
	v, err := d.ReadUint32()
	if err != nil {
		return err
	}
	*c = style.Color(v)
	return nil
}

// EncodeRenderRequestTo encodes a single-node render payload.
func EncodeRenderRequestTo(e *Encoder, r *RenderRequest) {
	e.WriteUvarint(r.WindowID)
	e.WriteUvarint(r.NodeID)
	e.WriteString(r.Kind)
	e.WriteString(r.Text)
	e.WriteUint32(r.ChildCount)
	for _, c := range r.Children {
		e.WriteUvarint(c)
	}
}

// DecodeRenderRequest decodes a single-node render payload.
func DecodeRenderRequest(data []byte) (*RenderRequest, error) {
	d := NewDecoder(data)
	r := &RenderRequest{}
	var err error
	if r.WindowID, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if r.NodeID, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if r.Kind, err = d.ReadString(); err != nil {
		return nil, err
	}
	if r.Text, err = d.ReadString(); err != nil {
		return nil, err
	}
	if r.ChildCount, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if r.ChildCount > 0 {
		if r.ChildCount > MaxCollectionCount {
			return nil, ErrCollectionTooLarge
		}
		r.Children = make([]uint64, 0, r.ChildCount)
		for i := uint32(0); i < r.ChildCount; i++ {
			c, err := d.ReadUvarint()
			if err != nil {
				return nil, err
			}
			r.Children = append(r.Children, c)
		}
	}
	return r, nil
}
