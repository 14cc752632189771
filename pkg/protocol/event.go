package protocol

import "fmt"

// EventType identifies the type of a native input event.
type EventType uint8

const (
	// Pointer events (0x01-0x06)
	EventPointerDown  EventType = 0x01
	EventPointerUp    EventType = 0x02
	EventPointerMove  EventType = 0x03
	EventClick        EventType = 0x04
	EventPointerEnter EventType = 0x05
	EventPointerLeave EventType = 0x06

	// Keyboard events (0x10-0x11)
	EventKeyDown EventType = 0x10
	EventKeyUp   EventType = 0x11

	// Focus events (0x20-0x23). Focus/Blur do not bubble; FocusIn/FocusOut
	// are their bubbling counterparts.
	EventFocus    EventType = 0x20
	EventBlur     EventType = 0x21
	EventFocusIn  EventType = 0x22
	EventFocusOut EventType = 0x23

	// Scroll/wheel events (0x30-0x31)
	EventScroll EventType = 0x30
	EventWheel  EventType = 0x31
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	switch et {
	case EventPointerDown:
		return "PointerDown"
	case EventPointerUp:
		return "PointerUp"
	case EventPointerMove:
		return "PointerMove"
	case EventClick:
		return "Click"
	case EventPointerEnter:
		return "PointerEnter"
	case EventPointerLeave:
		return "PointerLeave"
	case EventKeyDown:
		return "KeyDown"
	case EventKeyUp:
		return "KeyUp"
	case EventFocus:
		return "Focus"
	case EventBlur:
		return "Blur"
	case EventFocusIn:
		return "FocusIn"
	case EventFocusOut:
		return "FocusOut"
	case EventScroll:
		return "Scroll"
	case EventWheel:
		return "Wheel"
	default:
		return "Unknown"
	}
}

// Bubbles reports whether the event type participates in the bubble phase.
// The classification is fixed: enter/leave pointer transitions, the
// non-bubbling focus transitions, and scroll-position events do not
// bubble; everything else does.
func (et EventType) Bubbles() bool {
	switch et {
	case EventPointerEnter, EventPointerLeave, EventFocus, EventBlur, EventScroll:
		return false
	default:
		return true
	}
}

// Modifiers represents keyboard/pointer modifier keys.
type Modifiers uint8

const (
	ModCtrl  Modifiers = 0x01
	ModShift Modifiers = 0x02
	ModAlt   Modifiers = 0x04
	ModMeta  Modifiers = 0x08
)

// Has returns true if the specified modifier is set.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod != 0
}

// Event is a decoded native input event. The concrete type is one of
// PointerEvent, KeyboardEvent, FocusEvent, ScrollEvent, or WheelEvent,
// constructed exhaustively at decode time.
type Event interface {
	Type() EventType
	Target() uint64
}

// PointerEvent carries pointer press/release/motion/transition data.
type PointerEvent struct {
	Kind    EventType
	Element uint64
	X       int64
	Y       int64
	Button  uint8
	Buttons uint8
	Mods    Modifiers
}

// Type implements Event.
func (e *PointerEvent) Type() EventType { return e.Kind }

// Target implements Event.
func (e *PointerEvent) Target() uint64 { return e.Element }

// KeyboardEvent carries key press data.
type KeyboardEvent struct {
	Kind    EventType
	Element uint64
	Key     string
	Code    string
	Mods    Modifiers
	Repeat  bool
}

// Type implements Event.
func (e *KeyboardEvent) Type() EventType { return e.Kind }

// Target implements Event.
func (e *KeyboardEvent) Target() uint64 { return e.Element }

// FocusEvent carries focus transitions. It has no payload beyond the
// target.
type FocusEvent struct {
	Kind    EventType
	Element uint64
}

// Type implements Event.
func (e *FocusEvent) Type() EventType { return e.Kind }

// Target implements Event.
func (e *FocusEvent) Target() uint64 { return e.Element }

// ScrollEvent carries a scroll position.
type ScrollEvent struct {
	Element uint64
	Top     float64
	Left    float64
}

// Type implements Event.
func (e *ScrollEvent) Type() EventType { return EventScroll }

// Target implements Event.
func (e *ScrollEvent) Target() uint64 { return e.Element }

// WheelEvent carries wheel deltas.
type WheelEvent struct {
	Element uint64
	DeltaX  float64
	DeltaY  float64
	Mods    Modifiers
}

// Type implements Event.
func (e *WheelEvent) Type() EventType { return EventWheel }

// Target implements Event.
func (e *WheelEvent) Target() uint64 { return e.Element }

// EncodeEventBatch encodes a batch of events. Used by in-process hosts and
// test fixtures; the real engine produces the same layout natively.
func EncodeEventBatch(events []Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(uint64(len(events)))
	for _, ev := range events {
		e.WriteByte(byte(ev.Type()))
		e.WriteUvarint(ev.Target())
		switch v := ev.(type) {
		case *PointerEvent:
			e.WriteSvarint(v.X)
			e.WriteSvarint(v.Y)
			e.WriteByte(v.Button)
			e.WriteByte(v.Buttons)
			e.WriteByte(byte(v.Mods))
		case *KeyboardEvent:
			e.WriteString(v.Key)
			e.WriteString(v.Code)
			e.WriteByte(byte(v.Mods))
			e.WriteBool(v.Repeat)
		case *FocusEvent:
			// No payload.
		case *ScrollEvent:
			e.WriteFloat64(v.Top)
			e.WriteFloat64(v.Left)
		case *WheelEvent:
			e.WriteFloat64(v.DeltaX)
			e.WriteFloat64(v.DeltaY)
			e.WriteByte(byte(v.Mods))
		}
	}
	return e.Bytes()
}

// DecodeEventBatch decodes a polled event batch. Empty input means no
// events this tick and decodes to a nil slice.
func DecodeEventBatch(data []byte) ([]Event, error) {
	if len(data) == 0 {
		return nil, nil
	}
	d := NewDecoder(data)
	count, err := d.ReadCount()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, count)
	for i := 0; i < count; i++ {
		ev, err := decodeEvent(d)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeEvent(d *Decoder) (Event, error) {
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	et := EventType(t)

	target, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	switch et {
	case EventPointerDown, EventPointerUp, EventPointerMove, EventClick,
		EventPointerEnter, EventPointerLeave:
		ev := &PointerEvent{Kind: et, Element: target}
		if ev.X, err = d.ReadSvarint(); err != nil {
			return nil, err
		}
		if ev.Y, err = d.ReadSvarint(); err != nil {
			return nil, err
		}
		if ev.Button, err = d.ReadByte(); err != nil {
			return nil, err
		}
		if ev.Buttons, err = d.ReadByte(); err != nil {
			return nil, err
		}
		mods, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		ev.Mods = Modifiers(mods)
		return ev, nil

	case EventKeyDown, EventKeyUp:
		ev := &KeyboardEvent{Kind: et, Element: target}
		if ev.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		if ev.Code, err = d.ReadString(); err != nil {
			return nil, err
		}
		mods, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		ev.Mods = Modifiers(mods)
		if ev.Repeat, err = d.ReadBool(); err != nil {
			return nil, err
		}
		return ev, nil

	case EventFocus, EventBlur, EventFocusIn, EventFocusOut:
		return &FocusEvent{Kind: et, Element: target}, nil

	case EventScroll:
		ev := &ScrollEvent{Element: target}
		if ev.Top, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		if ev.Left, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		return ev, nil

	case EventWheel:
		ev := &WheelEvent{Element: target}
		if ev.DeltaX, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		if ev.DeltaY, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		mods, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		ev.Mods = Modifiers(mods)
		return ev, nil

	default:
		return nil, fmt.Errorf("protocol: unknown event type 0x%02x", t)
	}
}
