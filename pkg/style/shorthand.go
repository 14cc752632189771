package style

import (
	"log/slog"
	"strings"
)

// ExpandSides applies the CSS-like 1/2/3/4-value shorthand rule to a
// margin/padding/inset value. A non-string value is treated as a single
// size applied to all four sides.
func ExpandSides(v any) Sides {
	s, ok := v.(string)
	if !ok {
		all := ParseSize(v)
		return Sides{Top: all, Right: all, Bottom: all, Left: all}
	}

	fields := strings.Fields(s)
	vals := make([]float64, 0, 4)
	for _, f := range fields {
		vals = append(vals, parseSizeString(f))
	}

	switch len(vals) {
	case 1:
		return Sides{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}
	case 2:
		return Sides{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
	case 3:
		return Sides{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
	case 4:
		return Sides{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
	default:
		slog.Warn("style: shorthand has no values", "value", s)
		return Sides{}
	}
}

// borderStyleKeywords maps border style tokens to their discriminant.
var borderStyleKeywords = map[string]BorderStyle{
	"none":   BorderNone,
	"solid":  BorderSolid,
	"dashed": BorderDashed,
	"dotted": BorderDotted,
}

// Border holds the parts extracted from a border shorthand.
type Border struct {
	Width float64
	Style BorderStyle
	Color Color
}

// ParseBorder tokenizes a border shorthand like "1px solid #333".
// Tokens starting with a digit are sizes, known keywords are line styles,
// and anything else is handed to the color parser.
func ParseBorder(v any) Border {
	b := Border{Style: BorderSolid}
	s, ok := v.(string)
	if !ok {
		b.Width = ParseSize(v)
		return b
	}

	for _, tok := range strings.Fields(s) {
		switch {
		case leadingDigit(tok):
			b.Width = parseSizeString(tok)
		case isStyleKeyword(tok):
			b.Style = borderStyleKeywords[strings.ToLower(tok)]
		default:
			b.Color = parseColorString(tok)
		}
	}
	return b
}

// Shadow holds the parts extracted from a box-shadow shorthand.
type Shadow struct {
	OffsetX float64
	OffsetY float64
	Blur    float64
	Color   Color
}

// ParseShadow tokenizes a box-shadow shorthand like "2px 2px 4px #000".
// Size tokens fill offset-x, offset-y, blur in order; the remaining token
// is the color.
func ParseShadow(v any) Shadow {
	var sh Shadow
	s, ok := v.(string)
	if !ok {
		slog.Warn("style: unsupported shadow value", "value", v)
		return sh
	}

	sizes := 0
	for _, tok := range strings.Fields(s) {
		if leadingDigit(tok) {
			val := parseSizeString(tok)
			switch sizes {
			case 0:
				sh.OffsetX = val
			case 1:
				sh.OffsetY = val
			case 2:
				sh.Blur = val
			}
			sizes++
			continue
		}
		sh.Color = parseColorString(tok)
	}
	return sh
}

func leadingDigit(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '.'
}

func isStyleKeyword(tok string) bool {
	_, ok := borderStyleKeywords[strings.ToLower(tok)]
	return ok
}
