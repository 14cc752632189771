package style

import (
	"log/slog"
	"strconv"
	"strings"
)

// BaseFontUnit is the unit multiplier for em/rem sizes.
const BaseFontUnit = 16

// ParseSize converts a size value from a property bag into native units.
// Numeric values pass through unchanged. Strings accept a px suffix
// (literal), em/rem (multiplied by BaseFontUnit), % (bare percentage
// number), or a bare number. Anything else yields zero with a warning.
func ParseSize(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		return parseSizeString(n)
	default:
		slog.Warn("style: unsupported size value", "value", v)
		return 0
	}
}

func parseSizeString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch {
	case strings.HasSuffix(s, "px"):
		return parseNum(s[:len(s)-2], s)
	case strings.HasSuffix(s, "rem"):
		return parseNum(s[:len(s)-3], s) * BaseFontUnit
	case strings.HasSuffix(s, "em"):
		return parseNum(s[:len(s)-2], s) * BaseFontUnit
	case strings.HasSuffix(s, "%"):
		return parseNum(s[:len(s)-1], s)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	slog.Warn("style: unrecognized size suffix", "value", s)
	return 0
}

func parseNum(num, orig string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		slog.Warn("style: malformed size number", "value", orig)
		return 0
	}
	return f
}
