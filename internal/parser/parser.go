// Package parser implements reading of pixel glyph definition files.
//
// A definitions file is comma-separated text. A row whose first field is
// non-empty starts a new glyph block keyed by that field; each following row
// with an empty first field contributes one grid row made of the remaining
// fields. A cell is filled when its text contains '#'.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ryanlewis/pixpage/internal/common"
	"github.com/ryanlewis/pixpage/internal/glyph"
)

const (
	// byteOrderMark is stripped from the first field of the file
	byteOrderMark = "\ufeff"

	// maxWarnings caps the number of collected warnings per file
	maxWarnings = 64
)

// Table is a parsed definitions file.
type Table struct {
	// Glyphs maps single-rune keys to their grids
	Glyphs map[rune]*glyph.Glyph

	// Notdef is the fallback glyph, nil when the file has no .notdef block
	Notdef *glyph.Glyph

	// Blocks is the number of key rows seen, including ignored ones
	Blocks int

	// Rows is the number of grid rows attached to glyphs
	Rows int

	// Warnings contains any non-fatal issues encountered during parsing
	Warnings []string
}

// Build returns the immutable lookup table for the parsed glyphs.
func (t *Table) Build() *glyph.Table {
	if t == nil {
		return glyph.NewTable(nil, nil)
	}
	return glyph.NewTable(t.Glyphs, t.Notdef)
}

func (t *Table) warnf(format string, args ...any) {
	if len(t.Warnings) == maxWarnings {
		t.Warnings = append(t.Warnings, "further warnings suppressed")
		return
	}
	if len(t.Warnings) > maxWarnings {
		return
	}
	t.Warnings = append(t.Warnings, fmt.Sprintf(format, args...))
}

// Parse reads a definitions file from r.
// An empty input yields an empty table and no error.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	t := &Table{Glyphs: make(map[rune]*glyph.Glyph)}
	var (
		current *glyph.Glyph
		first   = true
	)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, fmt.Errorf("%w: line %d, column %d: %v", common.ErrBadTableFormat, pe.Line, pe.Column, pe.Err)
			}
			return nil, fmt.Errorf("error reading definitions: %w", err)
		}

		if first {
			record[0] = strings.TrimPrefix(record[0], byteOrderMark)
			first = false
		}

		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		if key := record[0]; key != "" {
			t.Blocks++
			current = t.startBlock(key)
			continue
		}

		if current == nil {
			line, _ := cr.FieldPos(0)
			t.warnf("line %d: grid row before any glyph key ignored", line)
			continue
		}
		current.Rows = append(current.Rows, parseCells(record[1:]))
		t.Rows++
	}

	return t, nil
}

// startBlock registers a new glyph for key and returns it. Keys that are not
// a single rune (other than .notdef) are collected into a detached glyph so
// their grid rows are consumed without being addressable.
func (t *Table) startBlock(key string) *glyph.Glyph {
	g := &glyph.Glyph{Key: key}

	if key == common.NotdefKey {
		if t.Notdef != nil {
			t.warnf("duplicate %s block replaces earlier definition", common.NotdefKey)
		}
		t.Notdef = g
		return g
	}

	r, size := utf8.DecodeRuneInString(key)
	if size != len(key) || (r == utf8.RuneError && size == 1) {
		t.warnf("key %q is not a single character; block ignored", key)
		return g
	}
	if _, dup := t.Glyphs[r]; dup {
		t.warnf("duplicate glyph %q replaces earlier definition", key)
	}
	t.Glyphs[r] = g
	return g
}

// parseCells converts the grid fields of one row into filled flags.
func parseCells(fields []string) []bool {
	cells := make([]bool, len(fields))
	for i, f := range fields {
		cells[i] = strings.Contains(f, common.FilledMarker)
	}
	return cells
}
