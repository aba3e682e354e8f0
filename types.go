package pixpage

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ryanlewis/pixpage/internal/common"
	"github.com/ryanlewis/pixpage/internal/debug"
	"github.com/ryanlewis/pixpage/internal/export"
	"github.com/ryanlewis/pixpage/internal/glyph"
	"github.com/ryanlewis/pixpage/internal/layout"
	"github.com/ryanlewis/pixpage/internal/normalize"
	"github.com/ryanlewis/pixpage/internal/raster"
)

// Profile is a glyph grid size: rows, columns and the width of a space.
type Profile = glyph.Profile

// Built-in profiles.
var (
	Profile5x5 = glyph.Profile5x5
	Profile5x4 = glyph.Profile5x4
	Profile4x3 = glyph.Profile4x3
)

// Profiles returns the built-in profiles, largest first.
func Profiles() []Profile {
	return glyph.Profiles()
}

// LookupProfile finds a profile by grid size name ("5x5", "5x4" or "4x3").
func LookupProfile(name string) (Profile, error) {
	p, ok := glyph.LookupProfile(strings.TrimSpace(name))
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Table is an immutable glyph table for one profile. It is safe to share
// across goroutines.
type Table struct {
	// Name is the source file name without extension.
	Name string

	// Profile is the grid size the table was loaded for.
	Profile Profile

	// Warnings lists non-fatal problems found while parsing.
	Warnings []string

	glyphs *glyph.Table
	err    error
}

// Glyph returns the grid for r as rows of '#' and '.', or false if r has no
// glyph of its own.
func (t *Table) Glyph(r rune) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	g, ok := t.glyphs.Lookup(r)
	if !ok {
		return nil, false
	}
	return strings.Split(g.String(), "\n"), true
}

// Has reports whether r has a glyph of its own.
func (t *Table) Has(r rune) bool {
	return t != nil && t.glyphs.Has(r)
}

// HasNotdef reports whether the table defines a fallback glyph.
func (t *Table) HasNotdef() bool {
	return t != nil && t.glyphs.Notdef() != nil
}

// Advance returns the horizontal advance of r in grid cells, after fallback
// resolution.
func (t *Table) Advance(r rune) int {
	if t == nil {
		return common.FallbackAdvance
	}
	return t.glyphs.Resolve(r).Advance(t.Profile.Cols)
}

// Len returns the number of defined glyphs, excluding the fallback.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.glyphs.Len()
}

// Runes returns the defined runes in ascending order.
func (t *Table) Runes() []rune {
	if t == nil {
		return nil
	}
	return t.glyphs.Runes()
}

// Err reports why a degraded table is empty. It is nil for tables that
// loaded normally.
func (t *Table) Err() error {
	if t == nil {
		return nil
	}
	return t.err
}

// EmptyTable returns a table with no glyphs. Every rune renders as a blank
// two-cell advance.
func EmptyTable(p Profile) *Table {
	return &Table{Profile: p, glyphs: glyph.NewTable(nil, nil)}
}

// Common errors returned by the pixpage package
var (
	// ErrNilTable is returned when rendering without a glyph table
	ErrNilTable = common.ErrNilTable

	// ErrBadTableFormat is returned when a definitions file cannot be parsed
	ErrBadTableFormat = common.ErrBadTableFormat

	// ErrSuperseded is returned by a pass abandoned for a newer submission
	ErrSuperseded = common.ErrSuperseded

	// ErrUnknownProfile is returned for an unrecognised grid size
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrResourceUnavailable wraps glyph table and legend load failures
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrInvalidGeometry is returned when margins leave no room for a glyph
	ErrInvalidGeometry = errors.New("invalid page geometry")

	// ErrEmptyDocument is returned when exporting a document without pages
	ErrEmptyDocument = errors.New("nothing to export")

	// ErrBadRules is returned when a substitution rules file cannot be parsed
	ErrBadRules = normalize.ErrBadRules
)

// Re-exported option value types.
type (
	// UnknownMode selects how characters without a glyph are written.
	UnknownMode = normalize.UnknownMode

	// Rule is one extra text substitution.
	Rule = normalize.Rule

	// Surface selects the page painting backend.
	Surface = raster.Kind

	// Format is a page export encoding.
	Format = export.Format

	// Progress is reported while a pass runs.
	Progress = layout.Progress

	// ProgressFunc is called at cooperative yield points. A non-nil error
	// aborts the pass.
	ProgressFunc = layout.YieldFunc

	// Stats describes a finished layout pass.
	Stats = layout.Stats

	// Geometry is the page size and margin in device pixels.
	Geometry = layout.Geometry
)

// Option values.
const (
	UnknownPlaceholder = normalize.UnknownPlaceholder
	UnknownHex         = normalize.UnknownHex

	SurfaceBitmap = raster.Bitmap
	SurfaceVector = raster.Vector

	FormatPNG  = export.PNG
	FormatTIFF = export.TIFF
	FormatPDF  = export.PDF
)

// Defaults for unset or out-of-range options.
const (
	DefaultScale         = 2
	DefaultDPI           = 300
	DefaultMarginMM      = 10
	DefaultDebounce      = 300 * time.Millisecond
	DefaultYieldInterval = layout.DefaultYieldInterval

	maxScale = 64
	maxDPI   = 2400
)

// Option configures rendering behavior.
type Option func(*options)

type options struct {
	pageSize      PageSize
	scale         int
	dpi           int
	marginMM      float64
	lineGap       int
	compact       bool
	extreme       bool
	legend        string
	legendFS      fs.FS
	legendPath    string
	unknown       UnknownMode
	transliterate bool
	foldAccents   bool
	rules         []Rule
	surface       Surface
	progress      ProgressFunc
	interval      time.Duration
	lenient       bool
	debounce      time.Duration
	session       *debug.Session
	now           func() time.Time
}

func defaultOptions() *options {
	return &options{
		pageSize: A4,
		scale:    DefaultScale,
		dpi:      DefaultDPI,
		marginMM: DefaultMarginMM,
		surface:  SurfaceBitmap,
		interval: DefaultYieldInterval,
		debounce: DefaultDebounce,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	// extreme implies compact and a zero line gap
	if o.extreme {
		o.compact = true
		o.lineGap = 0
	}
	return o
}

// WithScale sets the pixel size of one glyph cell.
// Values of 0 or less use DefaultScale; values above 64 are clamped.
func WithScale(scale int) Option {
	return func(o *options) {
		if scale <= 0 {
			scale = DefaultScale
		} else if scale > maxScale {
			scale = maxScale
		}
		o.scale = scale
	}
}

// WithDPI sets the page resolution.
// Values of 0 or less use DefaultDPI; values above 2400 are clamped.
func WithDPI(dpi int) Option {
	return func(o *options) {
		o.dpi = EffectiveDPI(dpi)
	}
}

// EffectiveDPI returns the resolution WithDPI(dpi) renders at. Exporters
// that place page bitmaps at a physical size must use the same value.
func EffectiveDPI(dpi int) int {
	if dpi <= 0 {
		return DefaultDPI
	}
	return min(dpi, maxDPI)
}

// WithMargin sets the page margin in millimetres. Negative values use
// DefaultMarginMM.
func WithMargin(mm float64) Option {
	return func(o *options) {
		if mm < 0 {
			mm = DefaultMarginMM
		}
		o.marginMM = mm
	}
}

// WithLineGap sets the number of blank grid rows between lines. It is
// ignored in extreme mode.
func WithLineGap(rows int) Option {
	return func(o *options) {
		o.lineGap = max(rows, 0)
	}
}

// WithPageSize selects the physical page. The default is A4.
func WithPageSize(size PageSize) Option {
	return func(o *options) {
		if size.WidthMM > 0 && size.HeightMM > 0 {
			o.pageSize = size
		}
	}
}

// WithCompact collapses whitespace runs and newlines into single spaces.
func WithCompact(on bool) Option {
	return func(o *options) {
		o.compact = on
	}
}

// WithExtreme lowercases text, maps digits to subscripts and implies
// compact mode with no line gap.
func WithExtreme(on bool) Option {
	return func(o *options) {
		o.extreme = on
	}
}

// WithLegend prefixes the document with a legend block. The text is
// whitespace-collapsed and trimmed; an empty legend adds nothing.
func WithLegend(text string) Option {
	return func(o *options) {
		o.legend = text
		o.legendFS, o.legendPath = nil, ""
	}
}

// WithLegendFS loads the legend from fsys at render time. A legend that
// cannot be read is left out and reported in Document.Warnings.
func WithLegendFS(fsys fs.FS, path string) Option {
	return func(o *options) {
		o.legend = ""
		o.legendFS, o.legendPath = fsys, path
	}
}

// WithUnknownMode selects how characters without a glyph are written.
func WithUnknownMode(mode UnknownMode) Option {
	return func(o *options) {
		o.unknown = mode
	}
}

// WithTransliteration spells Russian text in Latin letters when the table
// has no Cyrillic glyphs.
func WithTransliteration(on bool) Option {
	return func(o *options) {
		o.transliterate = on
	}
}

// WithAccentFolding strips combining marks the built-in table leaves behind.
func WithAccentFolding(on bool) Option {
	return func(o *options) {
		o.foldAccents = on
	}
}

// WithRules adds substitutions applied after the built-in typographic table.
func WithRules(rules []Rule) Option {
	return func(o *options) {
		o.rules = append(o.rules, rules...)
	}
}

// WithSurface selects the page painting backend.
func WithSurface(s Surface) Option {
	return func(o *options) {
		if s != "" {
			o.surface = s
		}
	}
}

// WithProgress installs a progress hook called at most once per interval.
// A negative interval uses DefaultYieldInterval.
func WithProgress(fn ProgressFunc, interval time.Duration) Option {
	return func(o *options) {
		if interval < 0 {
			interval = DefaultYieldInterval
		}
		o.progress = fn
		o.interval = interval
	}
}

// WithLenientGeometry skips the margin and page size checks. Content that
// does not fit is drawn past the margins instead of failing.
func WithLenientGeometry(on bool) Option {
	return func(o *options) {
		o.lenient = on
	}
}

// WithDebounce sets the delay a Scheduler waits for input to settle.
// Values of 0 or less use DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			d = DefaultDebounce
		}
		o.debounce = d
	}
}

// WithDebug enables debug tracing for a render operation.
// The session parameter should be a *debug.Session from internal/debug.
func WithDebug(session interface{}) Option {
	return func(o *options) {
		if s, ok := session.(*debug.Session); ok {
			o.session = s
		}
	}
}

// withClock replaces time.Now for yield gating.
func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// ParseUnknownMode parses "placeholder" or "hex".
func ParseUnknownMode(s string) (UnknownMode, error) {
	return normalize.ParseUnknownMode(s)
}

// ParseSurface parses "bitmap" or "vector".
func ParseSurface(s string) (Surface, error) {
	return raster.ParseKind(s)
}

// ParseFormat parses "png", "tiff" or "pdf".
func ParseFormat(s string) (Format, error) {
	return export.ParseFormat(s)
}
