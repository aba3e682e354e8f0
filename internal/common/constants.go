// Package common provides shared constants and types for internal packages.
// These values must match the public API in the pixpage package.
package common

import "errors"

// Glyph table markers
const (
	// Placeholder replaces every input rune that has no glyph in the active table
	Placeholder = '\uFFFD'
	// NotdefKey names the optional fallback glyph block in a definitions file
	NotdefKey = ".notdef"
	// FilledMarker marks a filled cell when present anywhere in the cell text
	FilledMarker = "#"
	// FallbackAdvance is the advance width of an empty or missing glyph
	FallbackAdvance = 2
)

// Common errors (must match public API in pixpage package)
var (
	// ErrNilTable is returned when a layout pass is started without a glyph table
	ErrNilTable = errors.New("nil glyph table")
	// ErrBadTableFormat is returned when a definitions file cannot be read as delimited text
	ErrBadTableFormat = errors.New("bad glyph table format")
	// ErrSuperseded is returned when a newer render generation replaced the running pass
	ErrSuperseded = errors.New("render superseded")
)
