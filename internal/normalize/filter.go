package normalize

import (
	"fmt"
	"strings"

	"github.com/ryanlewis/pixpage/internal/common"
)

// Lookup reports whether a rune has its own glyph.
type Lookup interface {
	Has(r rune) bool
}

// UnknownMode selects how Filter rewrites runes without a glyph.
type UnknownMode int

const (
	// UnknownPlaceholder replaces each unknown rune with U+FFFD.
	UnknownPlaceholder UnknownMode = iota
	// UnknownHex spells each unknown rune as [\uXXXX].
	UnknownHex
)

// String implements fmt.Stringer.
func (m UnknownMode) String() string {
	switch m {
	case UnknownPlaceholder:
		return "placeholder"
	case UnknownHex:
		return "hex"
	default:
		return fmt.Sprintf("UnknownMode(%d)", int(m))
	}
}

// ParseUnknownMode parses the textual form produced by String.
func ParseUnknownMode(s string) (UnknownMode, error) {
	switch strings.ToLower(s) {
	case "", "placeholder":
		return UnknownPlaceholder, nil
	case "hex":
		return UnknownHex, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want placeholder or hex)", s)
}

// Known reports whether r survives filtering unchanged.
func Known(r rune, known Lookup) bool {
	return r == ' ' || r == '\n' || (known != nil && known.Has(r))
}

// Filter rewrites every rune that is not a space, a newline or a glyph in
// known. In placeholder mode with compact set, runs of the placeholder
// collapse to one; newlines are hard separators, so runs are never merged
// across them.
func Filter(text string, known Lookup, compact bool, mode UnknownMode) string {
	var b strings.Builder
	b.Grow(len(text))
	prevPlaceholder := false
	for _, r := range text {
		// a table may define the placeholder itself; it still joins the run
		if r == common.Placeholder && mode == UnknownPlaceholder {
			if compact && prevPlaceholder {
				continue
			}
			b.WriteRune(r)
			prevPlaceholder = true
			continue
		}
		if Known(r, known) {
			b.WriteRune(r)
			prevPlaceholder = false
			continue
		}
		switch mode {
		case UnknownHex:
			fmt.Fprintf(&b, "[\\u%04x]", r)
		default:
			if compact && prevPlaceholder {
				continue
			}
			b.WriteRune(common.Placeholder)
			prevPlaceholder = true
		}
	}
	return b.String()
}
