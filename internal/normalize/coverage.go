package normalize

import (
	"cmp"
	"fmt"
	"slices"

	"golang.org/x/text/unicode/runenames"
)

// Missing describes one rune that would be replaced by Filter.
type Missing struct {
	Rune  rune
	Count int
	Name  string
}

// String formats the entry as "U+0416 'Ж' CYRILLIC CAPITAL LETTER ZHE x3".
func (m Missing) String() string {
	return fmt.Sprintf("U+%04X %q %s x%d", m.Rune, m.Rune, m.Name, m.Count)
}

// Coverage lists the runes of text that have no glyph in known, most
// frequent first and then by code point. text is expected to be the output
// of Normalize.
func Coverage(text string, known Lookup) []Missing {
	counts := make(map[rune]int)
	for _, r := range text {
		if !Known(r, known) {
			counts[r]++
		}
	}
	out := make([]Missing, 0, len(counts))
	for r, n := range counts {
		name := runenames.Name(r)
		if name == "" {
			name = "<unnamed>"
		}
		out = append(out, Missing{Rune: r, Count: n, Name: name})
	}
	slices.SortFunc(out, func(a, b Missing) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Rune, b.Rune)
	})
	return out
}
