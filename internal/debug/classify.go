package debug

import "github.com/ryanlewis/pixpage/internal/common"

// FormatModes returns human-readable names for the active text modes.
func FormatModes(compact, extreme bool, unknown string) []string {
	var modes []string

	if extreme {
		modes = append(modes, "Extreme")
	}
	// extreme implies compact
	if compact || extreme {
		modes = append(modes, "Compact")
	}
	if unknown != "" {
		modes = append(modes, "Unknown="+unknown)
	}

	if len(modes) == 0 {
		return []string{"Normal"}
	}
	return modes
}

// ClassifyGlyph names how a placed rune was resolved. defined reports
// whether the table has a glyph for the rune and notdef whether the table
// has a fallback glyph.
func ClassifyGlyph(r rune, defined, notdef bool) string {
	switch {
	case defined:
		return "glyph"
	case r == common.Placeholder && notdef:
		return "placeholder"
	case notdef:
		return "notdef"
	default:
		return "empty"
	}
}
