package debug

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Sink is the interface for debug output destinations.
type Sink interface {
	Write(event Event) error
	Flush() error
	Close() error
}

// JSONSink writes events in JSON Lines format.
type JSONSink struct {
	w       *bufio.Writer
	encoder *json.Encoder
}

// NewJSONSink creates a new JSON Lines sink writing to w.
func NewJSONSink(w io.Writer) *JSONSink {
	bw := bufio.NewWriter(w)
	return &JSONSink{
		w:       bw,
		encoder: json.NewEncoder(bw),
	}
}

// Write encodes and writes an event as a JSON line.
func (s *JSONSink) Write(event Event) error {
	return s.encoder.Encode(event)
}

// Flush writes any buffered data to the underlying writer.
func (s *JSONSink) Flush() error {
	return s.w.Flush()
}

// Close flushes the buffer.
func (s *JSONSink) Close() error {
	return s.Flush()
}

// PrettySink writes events in human-readable format.
type PrettySink struct {
	w *bufio.Writer
}

// NewPrettySink creates a new pretty-format sink writing to w.
func NewPrettySink(w io.Writer) *PrettySink {
	return &PrettySink{
		w: bufio.NewWriter(w),
	}
}

// Write formats and writes an event in human-readable format.
func (s *PrettySink) Write(event Event) error {
	// Format: [timestamp] [phase/event]
	fmt.Fprintf(s.w, "[%s] #%d [%s/%s] session=%s\n", event.Timestamp, event.Seq, event.Phase, event.Event, event.SessionID)

	switch d := event.Data.(type) {
	case LayoutStartData:
		s.writeLayoutStart(d)
	case LayoutEndData:
		s.writeLayoutEnd(d)
	case GlyphData:
		s.writeGlyph(d)
	case PageData:
		fmt.Fprintf(s.w, "  page: %d (%s)\n", d.Index, d.Reason)
	case WrapData:
		fmt.Fprintf(s.w, "  page: %d, y: %d\n", d.Page, d.Y)
	case YieldData:
		fmt.Fprintf(s.w, "  progress: %d%% (page %d)\n", d.Percent, d.Pages)
	case TableLoadedData:
		s.writeTableLoaded(d)
	case TableDegradedData:
		fmt.Fprintf(s.w, "  %s unavailable from %s: %s\n", d.Resource, d.Source, d.Error)
	case NormalizeData:
		s.writeNormalize(d)
	case ExportData:
		fmt.Fprintf(s.w, "  page %d -> %s (%s, %d bytes)\n", d.Page, d.Path, d.Format, d.Bytes)
	case SessionStartData:
		fmt.Fprintf(s.w, "  tool: %s, pid: %d\n", d.Tool, d.PID)
	case SessionEndData:
		fmt.Fprintf(s.w, "  elapsed: %dms\n", d.ElapsedMS)
	default:
		fmt.Fprintf(s.w, "  data: %+v\n", d)
	}

	return nil
}

func (s *PrettySink) writeLayoutStart(d LayoutStartData) {
	fmt.Fprintf(s.w, "  profile: %s, scale: %d, line_gap: %d, compact: %t\n", d.Profile, d.Scale, d.LineGap, d.Compact)
	fmt.Fprintf(s.w, "  page: %dx%d px, margin: %d px\n", d.WidthPx, d.HeightPx, d.MarginPx)
	fmt.Fprintf(s.w, "  runes: %d\n", d.Runes)
}

func (s *PrettySink) writeLayoutEnd(d LayoutEndData) {
	fmt.Fprintf(s.w, "  pages: %d, lines: %d, tokens: %d, glyphs: %d, wraps: %d\n",
		d.Pages, d.Lines, d.Tokens, d.Glyphs, d.Wraps)
	fmt.Fprintf(s.w, "  cursor: (%d, %d)\n", d.X, d.Y)
}

func (s *PrettySink) writeGlyph(d GlyphData) {
	fmt.Fprintf(s.w, "  page: %d, at: (%d, %d), rune: %s, advance: %d\n", d.Page, d.X, d.Y, runeStr(d.Rune), d.Advance)
	if d.Kind != "glyph" {
		fmt.Fprintf(s.w, "  kind: %s\n", d.Kind)
	}
}

func (s *PrettySink) writeTableLoaded(d TableLoadedData) {
	fmt.Fprintf(s.w, "  profile: %s, source: %s\n", d.Profile, d.Source)
	fmt.Fprintf(s.w, "  glyphs: %d, notdef: %t, warnings: %d, cached: %t\n", d.Glyphs, d.Notdef, d.Warnings, d.Cached)
}

func (s *PrettySink) writeNormalize(d NormalizeData) {
	fmt.Fprintf(s.w, "  runes: %d → %d, placeholders: %d\n", d.InputRunes, d.OutputRunes, d.Placeholders)
	fmt.Fprintf(s.w, "  modes: %s, legend: %t\n", strings.Join(d.Modes, "|"), d.Legend)
}

// Flush writes any buffered data to the underlying writer.
func (s *PrettySink) Flush() error {
	return s.w.Flush()
}

// Close flushes the buffer.
func (s *PrettySink) Close() error {
	return s.Flush()
}

// runeStr formats a rune for display: 'X' (0x58) or NUL for 0.
func runeStr(r rune) string {
	if r == 0 {
		return "NUL"
	}
	if r >= 32 && r < 127 {
		return fmt.Sprintf("'%c' (0x%02X)", r, r)
	}
	return fmt.Sprintf("U+%04X", r)
}
