package style

import (
	"log/slog"
	"strconv"
	"strings"
)

// namedColors is the fixed named-color table.
var namedColors = map[string]Color{
	"black":       0x000000,
	"white":       0xFFFFFF,
	"red":         0xFF0000,
	"green":       0x008000,
	"blue":        0x0000FF,
	"yellow":      0xFFFF00,
	"cyan":        0x00FFFF,
	"magenta":     0xFF00FF,
	"gray":        0x808080,
	"grey":        0x808080,
	"orange":      0xFFA500,
	"purple":      0x800080,
	"transparent": 0x000000,
}

// ParseColor converts a color value into a packed RGB color.
// Accepts #RGB and #RRGGBB hex, rgb()/rgba() functional notation (alpha
// ignored), and the fixed named-color table. Unrecognized input falls back
// to black with a warning.
func ParseColor(v any) Color {
	switch c := v.(type) {
	case Color:
		return c
	case uint32:
		return Color(c & 0xFFFFFF)
	case int:
		return Color(uint32(c) & 0xFFFFFF)
	case string:
		return parseColorString(c)
	default:
		slog.Warn("style: unsupported color value", "value", v)
		return 0
	}
}

func parseColorString(s string) Color {
	s = strings.TrimSpace(strings.ToLower(s))

	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBColor(s)
	}
	if c, ok := namedColors[s]; ok {
		return c
	}
	slog.Warn("style: unrecognized color", "value", s)
	return 0
}

func parseHexColor(s string) Color {
	hex := s[1:]
	switch len(hex) {
	case 3:
		// #abc expands to #aabbcc.
		var expanded [6]byte
		for i := 0; i < 3; i++ {
			expanded[i*2] = hex[i]
			expanded[i*2+1] = hex[i]
		}
		hex = string(expanded[:])
	case 6:
	default:
		slog.Warn("style: malformed hex color", "value", s)
		return 0
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		slog.Warn("style: malformed hex color", "value", s)
		return 0
	}
	return Color(v)
}

func parseRGBColor(s string) Color {
	open := strings.IndexByte(s, '(')
	close := strings.LastIndexByte(s, ')')
	if open < 0 || close < open {
		slog.Warn("style: malformed rgb color", "value", s)
		return 0
	}

	parts := strings.Split(s[open+1:close], ",")
	if len(parts) != 3 && len(parts) != 4 {
		slog.Warn("style: malformed rgb color", "value", s)
		return 0
	}

	var channels [3]uint32
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 32)
		if err != nil || n > 255 {
			slog.Warn("style: rgb channel out of range", "value", s)
			return 0
		}
		channels[i] = uint32(n)
	}
	// A fourth component (alpha) is parsed away and discarded.
	return Color(channels[0]<<16 | channels[1]<<8 | channels[2])
}
