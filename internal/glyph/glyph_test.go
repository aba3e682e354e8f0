package glyph

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// grid builds a glyph from '#'/'.' rows.
func grid(key string, rows ...string) *Glyph {
	g := &Glyph{Key: key}
	for _, row := range rows {
		cells := make([]bool, len(row))
		for i := range row {
			cells[i] = row[i] == '#'
		}
		g.Rows = append(g.Rows, cells)
	}
	return g
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name    string
		glyph   *Glyph
		maxCols int
		want    int
	}{
		{
			name:    "nil glyph",
			glyph:   nil,
			maxCols: 5,
			want:    2,
		},
		{
			name:    "no rows",
			glyph:   &Glyph{},
			maxCols: 5,
			want:    2,
		},
		{
			name:    "all cells empty",
			glyph:   grid("x", ".....", "....."),
			maxCols: 5,
			want:    2,
		},
		{
			name:    "columns 0-3",
			glyph:   grid("A", ".##.", "#..#", "####", "#..#", "#..#"),
			maxCols: 5,
			want:    5,
		},
		{
			name:    "columns 0-2",
			glyph:   grid("B", "##.", "#.#", "##.", "#.#", "##."),
			maxCols: 5,
			want:    4,
		},
		{
			name:    "single pixel in first column",
			glyph:   grid("i", "#"),
			maxCols: 3,
			want:    2,
		},
		{
			name:    "clipped to maxCols",
			glyph:   grid("W", "#....#"),
			maxCols: 4,
			want:    2,
		},
		{
			name:    "rightmost across ragged rows",
			glyph:   grid("r", "#", "..#", ".#"),
			maxCols: 5,
			want:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.glyph.Advance(tt.maxCols); got != tt.want {
				t.Errorf("Advance(%d) = %d, want %d", tt.maxCols, got, tt.want)
			}
		})
	}
}

func TestAdvanceMatchesRightmostColumn(t *testing.T) {
	glyphs := []*Glyph{
		grid("a", "#"),
		grid("b", ".#"),
		grid("c", "..#", "#"),
		grid("d", "...#"),
		grid("e", "....#"),
		grid("f", ".....#"),
	}
	for _, p := range Profiles() {
		for _, g := range glyphs {
			right := g.RightmostColumn(p.Cols)
			got := g.Advance(p.Cols)
			if right < 0 {
				if got != 2 {
					t.Errorf("%s/%s: empty window advance = %d, want 2", p.Name, g.Key, got)
				}
				continue
			}
			if right >= p.Cols {
				t.Errorf("%s/%s: rightmost %d escapes %d columns", p.Name, g.Key, right, p.Cols)
			}
			if got != right+2 {
				t.Errorf("%s/%s: advance = %d, want %d", p.Name, g.Key, got, right+2)
			}
		}
	}
}

func TestCellsWindow(t *testing.T) {
	g := grid("Q", "###", "#.#", "###", "..#", "..##")

	var got [][2]int
	g.Cells(4, 3, func(row, col int) {
		got = append(got, [2]int{row, col})
	})

	want := [][2]int{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 2},
		{2, 0}, {2, 1}, {2, 2},
		{3, 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Cells mismatch (-want +got):\n%s", diff)
	}
}

func TestGlyphString(t *testing.T) {
	g := grid("L", "#", "#", "###")
	want := strings.Join([]string{"#..", "#..", "###"}, "\n")
	if got := g.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		space      int
		file       string
	}{
		{"5x5", 5, 5, 3, "Times_Sitelew_Roman_5x5_pixels.csv"},
		{"5x4", 5, 4, 3, "Times_Sitelew_Roman_5x4_pixels.csv"},
		{"4x3", 4, 3, 2, "Times_Sitelew_Roman_4x3_pixels.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := LookupProfile(tt.name)
			if !ok {
				t.Fatalf("profile %s not found", tt.name)
			}
			if p.Rows != tt.rows || p.Cols != tt.cols || p.SpaceWidth != tt.space {
				t.Errorf("profile %s = %+v", tt.name, p)
			}
			if got := p.FileName(); got != tt.file {
				t.Errorf("FileName() = %q, want %q", got, tt.file)
			}
		})
	}

	if _, ok := LookupProfile("6x6"); ok {
		t.Error("unexpected profile 6x6")
	}
}

func TestResolve(t *testing.T) {
	a := grid("A", "####")
	notdef := grid(".notdef", "#.#", ".#.", "#.#")

	withNotdef := NewTable(map[rune]*Glyph{'A': a}, notdef)
	bare := NewTable(map[rune]*Glyph{'A': a}, nil)

	tests := []struct {
		name  string
		table *Table
		r     rune
		want  *Glyph
	}{
		{"defined rune", withNotdef, 'A', a},
		{"notdef fallback", withNotdef, 'Z', notdef},
		{"empty fallback", bare, 'Z', Empty()},
		{"nil table", nil, 'A', Empty()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table.Resolve(tt.r); got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.r, got.Key, tt.want.Key)
			}
		})
	}

	if got := bare.Resolve('Z').Advance(5); got != 2 {
		t.Errorf("missing glyph advance = %d, want 2", got)
	}
}

func TestTableRunes(t *testing.T) {
	tbl := NewTable(map[rune]*Glyph{'b': {}, 'a': {}, 'é': {}}, nil)
	if diff := cmp.Diff([]rune{'a', 'b', 'é'}, tbl.Runes()); diff != "" {
		t.Errorf("Runes mismatch (-want +got):\n%s", diff)
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tbl.Len())
	}
	if !tbl.Has('a') || tbl.Has('z') {
		t.Error("Has reported wrong membership")
	}
}
