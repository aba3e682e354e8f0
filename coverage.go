package pixpage

import "github.com/ryanlewis/pixpage/internal/normalize"

// Missing describes a character the table cannot draw.
type Missing = normalize.Missing

// Coverage lists the characters of text that would render as placeholders
// with table t under opts, most frequent first.
//
// The legend is not included. Transliteration is applied when enabled, so
// Russian text checked against a Latin-only table reports nothing for the
// letters it spells out.
func Coverage(text string, t *Table, opts ...Option) []Missing {
	if t == nil {
		t = EmptyTable(Profile5x5)
	}
	o := buildOptions(opts)
	return normalize.Coverage(normalized(text, t, o, ""), t.glyphs)
}
