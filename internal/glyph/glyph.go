// Package glyph holds the pixel glyph model shared by the parser, layout and
// raster packages.
package glyph

import (
	"fmt"
	"slices"

	"github.com/ryanlewis/pixpage/internal/common"
)

// Glyph is a pixel grid for one renderable character.
// Rows may be ragged; cells outside a row are unfilled.
type Glyph struct {
	Key  string
	Rows [][]bool
}

// empty is returned by Resolve when neither the rune nor .notdef is defined.
var empty = &Glyph{}

// Empty returns the shared glyph with no pixels.
func Empty() *Glyph { return empty }

// Filled reports whether the cell at (row, col) is set.
func (g *Glyph) Filled(row, col int) bool {
	if g == nil || row < 0 || row >= len(g.Rows) {
		return false
	}
	r := g.Rows[row]
	return col >= 0 && col < len(r) && r[col]
}

// RightmostColumn returns the index of the rightmost filled column below
// maxCols, or -1 when no such cell exists.
func (g *Glyph) RightmostColumn(maxCols int) int {
	if g == nil {
		return -1
	}
	right := -1
	for _, row := range g.Rows {
		for c := 0; c < len(row) && c < maxCols; c++ {
			if row[c] && c > right {
				right = c
			}
		}
	}
	return right
}

// Advance returns the horizontal advance in grid cells, including the one
// cell gap that follows every glyph. It is never below FallbackAdvance.
func (g *Glyph) Advance(maxCols int) int {
	right := g.RightmostColumn(maxCols)
	if right < 0 {
		return common.FallbackAdvance
	}
	return right + 2
}

// Cells calls fn for every filled cell inside the maxRows x maxCols window,
// row-major.
func (g *Glyph) Cells(maxRows, maxCols int, fn func(row, col int)) {
	if g == nil {
		return
	}
	for r := 0; r < len(g.Rows) && r < maxRows; r++ {
		row := g.Rows[r]
		for c := 0; c < len(row) && c < maxCols; c++ {
			if row[c] {
				fn(r, c)
			}
		}
	}
}

// String renders the glyph as '#' and '.' rows, for debugging and goldens.
func (g *Glyph) String() string {
	if g == nil {
		return ""
	}
	width := 0
	for _, row := range g.Rows {
		width = max(width, len(row))
	}
	b := make([]byte, 0, (width+1)*len(g.Rows))
	for i, row := range g.Rows {
		if i > 0 {
			b = append(b, '\n')
		}
		for c := 0; c < width; c++ {
			if c < len(row) && row[c] {
				b = append(b, '#')
			} else {
				b = append(b, '.')
			}
		}
	}
	return string(b)
}

// Profile fixes the grid bounds and space advance for one font size.
type Profile struct {
	Name       string
	Rows       int
	Cols       int
	SpaceWidth int
}

// Built-in profiles.
var (
	Profile5x5 = Profile{Name: "5x5", Rows: 5, Cols: 5, SpaceWidth: 3}
	Profile5x4 = Profile{Name: "5x4", Rows: 5, Cols: 4, SpaceWidth: 3}
	Profile4x3 = Profile{Name: "4x3", Rows: 4, Cols: 3, SpaceWidth: 2}
)

// Profiles returns the built-in profiles, largest first.
func Profiles() []Profile {
	return []Profile{Profile5x5, Profile5x4, Profile4x3}
}

// LookupProfile finds a built-in profile by name.
func LookupProfile(name string) (Profile, bool) {
	for _, p := range Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// FileName is the definitions file that carries the profile's glyph table.
func (p Profile) FileName() string {
	return fmt.Sprintf("Times_Sitelew_Roman_%s_pixels.csv", p.Name)
}

// Table maps runes to glyphs for a single profile. A Table is never mutated
// after construction and is safe for concurrent use.
type Table struct {
	glyphs map[rune]*Glyph
	notdef *Glyph
}

// NewTable builds a table. notdef may be nil.
func NewTable(glyphs map[rune]*Glyph, notdef *Glyph) *Table {
	if glyphs == nil {
		glyphs = make(map[rune]*Glyph)
	}
	return &Table{glyphs: glyphs, notdef: notdef}
}

// Lookup returns the glyph defined for r.
func (t *Table) Lookup(r rune) (*Glyph, bool) {
	if t == nil {
		return nil, false
	}
	g, ok := t.glyphs[r]
	return g, ok
}

// Has reports whether r has its own glyph.
func (t *Table) Has(r rune) bool {
	_, ok := t.Lookup(r)
	return ok
}

// Notdef returns the fallback glyph, or nil.
func (t *Table) Notdef() *Glyph {
	if t == nil {
		return nil
	}
	return t.notdef
}

// Resolve returns the glyph for r, the .notdef glyph, or the empty glyph, in
// that order. It never returns nil.
func (t *Table) Resolve(r rune) *Glyph {
	if g, ok := t.Lookup(r); ok && g != nil {
		return g
	}
	if nd := t.Notdef(); nd != nil {
		return nd
	}
	return empty
}

// Len returns the number of rune glyphs, excluding .notdef.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.glyphs)
}

// Runes returns the defined runes in ascending order.
func (t *Table) Runes() []rune {
	if t == nil {
		return nil
	}
	out := make([]rune, 0, len(t.glyphs))
	for r := range t.glyphs {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}
