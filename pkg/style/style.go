// Package style resolves generic visual property bags into the normalized
// style records the native engine consumes.
//
// Resolution is a pure mapping: the same property bag always produces the
// same Style. Unrecognized or malformed values degrade to safe defaults
// (zero sizes, black colors) with a logged warning rather than failing the
// commit that carried them.
package style

// Color is an opaque 24-bit RGB color packed as 0xRRGGBB.
// Alpha from rgba() input is ignored; the engine paints opaque channels.
type Color uint32

// Channel accessors.

// R returns the red channel.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G returns the green channel.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue channel.
func (c Color) B() uint8 { return uint8(c) }

// BorderStyle is the border line style discriminator.
type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderSolid
	BorderDashed
	BorderDotted
)

// String returns the string representation of the border style.
func (b BorderStyle) String() string {
	switch b {
	case BorderNone:
		return "none"
	case BorderSolid:
		return "solid"
	case BorderDashed:
		return "dashed"
	case BorderDotted:
		return "dotted"
	default:
		return "unknown"
	}
}

// Sides holds per-side values produced by shorthand expansion.
type Sides struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Style is the normalized style record mirrored to the native engine.
// All sizes are in native units; shorthands are already expanded.
type Style struct {
	Width  float64
	Height float64

	Margin  Sides
	Padding Sides
	Inset   Sides

	BorderWidth float64
	BorderStyle BorderStyle
	BorderColor Color

	Background    Color
	HasBackground bool
	TextColor     Color
	HasTextColor  bool

	FontSize float64
	Opacity  float64

	ShadowOffsetX float64
	ShadowOffsetY float64
	ShadowBlur    float64
	ShadowColor   Color
	HasShadow     bool
}

// Default returns the zero-value style with opacity at fully opaque.
func Default() Style {
	return Style{Opacity: 1}
}
