package parser

import (
	"strings"
	"testing"
)

// ValidateGlyph checks that r is defined and that its grid renders to the
// expected '#'/'.' rows. Rows are compared after padding to a common width,
// so trailing '.' may be omitted in expected.
func ValidateGlyph(t *testing.T, tbl *Table, r rune, expected []string) {
	t.Helper()
	g, ok := tbl.Glyphs[r]
	if !ok {
		t.Fatalf("glyph %q not found", r)
	}
	got := strings.Split(g.String(), "\n")
	if len(g.Rows) == 0 {
		got = nil
	}
	if len(got) != len(expected) {
		t.Fatalf("glyph %q has %d rows, want %d", r, len(got), len(expected))
	}
	for i := range expected {
		if strings.TrimRight(got[i], ".") != strings.TrimRight(expected[i], ".") {
			t.Errorf("glyph %q row %d = %q, want %q", r, i, got[i], expected[i])
		}
	}
}

// ValidateWarning checks that at least one warning contains substr.
func ValidateWarning(t *testing.T, tbl *Table, substr string) {
	t.Helper()
	for _, w := range tbl.Warnings {
		if strings.Contains(w, substr) {
			return
		}
	}
	t.Errorf("no warning containing %q in %v", substr, tbl.Warnings)
}
