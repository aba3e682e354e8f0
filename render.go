package pixpage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/ryanlewis/pixpage/internal/common"
	"github.com/ryanlewis/pixpage/internal/debug"
	"github.com/ryanlewis/pixpage/internal/export"
	"github.com/ryanlewis/pixpage/internal/layout"
	"github.com/ryanlewis/pixpage/internal/normalize"
	"github.com/ryanlewis/pixpage/internal/raster"
)

// Page is one rendered page image.
type Page struct {
	Index int
	Image image.Image
}

// Document is the result of a render.
type Document struct {
	// Pages holds the page images. RenderTo leaves it nil.
	Pages []Page

	// PageCount is the number of pages produced, zero for empty input.
	PageCount int

	// Text is the filtered character stream that was laid out.
	Text string

	// Placeholders counts characters drawn as the placeholder glyph.
	Placeholders int

	Stats    Stats
	Geometry Geometry
	PageSize PageSize
	Profile  Profile
	DPI      int

	// Warnings lists degraded resources. Each wraps ErrResourceUnavailable.
	Warnings []error
}

// Degraded reports whether the document was rendered without a resource it
// asked for.
func (d *Document) Degraded() bool {
	return d != nil && len(d.Warnings) > 0
}

// Err joins the warnings into one error, or returns nil.
func (d *Document) Err() error {
	if d == nil {
		return nil
	}
	return errors.Join(d.Warnings...)
}

// WriteFiles encodes the held pages under base (a path without extension)
// and returns the written paths.
func (d *Document) WriteFiles(base string, f Format) ([]string, error) {
	if d == nil || len(d.Pages) == 0 {
		return nil, ErrEmptyDocument
	}
	fs, err := export.NewFileSet(base, f, d.DPI, export.WithInfo(export.Info{
		Title:   base,
		Creator: "pixpage",
	}))
	if err != nil {
		return nil, err
	}
	for _, p := range d.Pages {
		if err := fs.WritePage(p.Index, p.Image); err != nil {
			return nil, err
		}
	}
	return fs.Close()
}

// PageFunc receives pages from RenderTo.
type PageFunc func(p Page) error

// Render lays out text with table t and paints every page into memory.
//
// Input that is empty or whitespace-only, with no legend requested, yields a
// Document with no pages. Missing glyph tables or legends do not fail the
// render: they are reported in Document.Warnings.
func Render(ctx context.Context, text string, t *Table, opts ...Option) (*Document, error) {
	var pages []Page
	doc, err := render(ctx, text, t, buildOptions(opts), func(i int, img image.Image) error {
		pages = append(pages, Page{Index: i, Image: img})
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	doc.Pages = pages
	return doc, nil
}

// RenderTo renders like Render but hands each page to fn as soon as it is
// finished. Bitmap page memory is reused, so the image is only valid until
// fn returns.
func RenderTo(ctx context.Context, text string, t *Table, fn PageFunc, opts ...Option) (*Document, error) {
	return render(ctx, text, t, buildOptions(opts), func(i int, img image.Image) error {
		if fn == nil {
			return nil
		}
		return fn(Page{Index: i, Image: img})
	}, true)
}

func render(ctx context.Context, text string, t *Table, o *options, emit raster.PageFunc, recycle bool) (*Document, error) {
	if t == nil {
		return nil, ErrNilTable
	}

	geo := PageGeometry(o.pageSize, o.dpi, o.marginMM)
	if !o.lenient {
		if err := ValidateGeometry(geo, t.Profile, o.scale); err != nil {
			return nil, err
		}
	}

	doc := &Document{
		Geometry: geo,
		PageSize: o.pageSize,
		Profile:  t.Profile,
		DPI:      o.dpi,
	}
	if err := t.Err(); err != nil {
		doc.Warnings = append(doc.Warnings, err)
	}

	legend, err := o.resolveLegend()
	if err != nil {
		doc.Warnings = append(doc.Warnings, err)
		o.session.Emit("table", "Degraded", debug.TableDegradedData{
			Resource: "legend",
			Source:   o.legendPath,
			Error:    err.Error(),
		})
	}
	if strings.TrimFunc(text, normalize.IsSpace) == "" && !o.wantsLegend() {
		return doc, nil
	}

	stream := prepare(text, t, o, legend)

	cfg := layout.Config{
		Profile:  t.Profile,
		Geometry: geo,
		Scale:    o.scale,
		LineGap:  o.lineGap,
		Compact:  o.compact,
	}

	var popts []raster.PainterOption
	if recycle {
		popts = append(popts, raster.WithRecycling())
	}
	painter := raster.NewPainter(o.surface, cfg, emit, popts...)

	eopts := []layout.Option{
		layout.WithYield(o.progress, o.interval),
		layout.WithDebug(o.session),
	}
	if o.now != nil {
		eopts = append(eopts, layout.WithClock(o.now))
	}

	stats, err := layout.New(t.glyphs, cfg, eopts...).Run(ctx, stream, painter)
	if err != nil {
		painter.Abort()
		return nil, err
	}
	if err := painter.Close(); err != nil {
		return nil, fmt.Errorf("paint: %w", err)
	}

	doc.Text = stream
	doc.Placeholders = placeholderCount(stream)
	doc.Stats = stats
	doc.PageCount = stats.Pages
	return doc, nil
}

// wantsLegend reports whether a legend was requested, whether or not it
// could be loaded.
func (o *options) wantsLegend() bool {
	return o.legendFS != nil || strings.TrimSpace(o.legend) != ""
}

func (o *options) resolveLegend() (string, error) {
	if o.legendFS == nil {
		return normalize.CleanLegend(o.legend), nil
	}
	legend, err := LoadLegendFS(o.legendFS, o.legendPath)
	if err != nil {
		return "", fmt.Errorf("%w: legend %s: %w", ErrResourceUnavailable, o.legendPath, err)
	}
	return legend, nil
}

func (o *options) normalizer() *normalize.Normalizer {
	return normalize.New(
		normalize.WithRules(o.rules),
		normalize.WithAccentFolding(o.foldAccents),
		normalize.WithDeferredSubscripts(o.hexSubscripts()),
	)
}

// hexSubscripts reports whether extreme subscripting waits until unknown
// characters are hex-escaped, so escape digits come out as subscripts too.
func (o *options) hexSubscripts() bool {
	return o.extreme && o.unknown == UnknownHex
}

// normalized applies the text transforms that precede unknown filtering.
func normalized(text string, t *Table, o *options, legend string) string {
	s := o.normalizer().Normalize(text, o.extreme, o.compact, legend)
	if o.transliterate && !normalize.SupportsCyrillic(t.glyphs) {
		s = normalize.Transliterate(s)
	}
	return s
}

// prepare produces the stream handed to the layout engine.
func prepare(text string, t *Table, o *options, legend string) string {
	s := normalized(text, t, o, legend)
	out := normalize.Filter(s, t.glyphs, o.compact, o.unknown)
	if o.hexSubscripts() {
		out = normalize.Subscript(out)
	}

	if o.session != nil {
		unknown := 0
		for _, r := range s {
			if !normalize.Known(r, t.glyphs) {
				unknown++
			}
		}
		o.session.Emit("normalize", "Done", debug.NormalizeData{
			InputRunes:   utf8.RuneCountInString(text),
			OutputRunes:  utf8.RuneCountInString(out),
			Placeholders: unknown,
			Legend:       legend != "",
			Modes:        debug.FormatModes(o.compact, o.extreme, unknownLabel(o.unknown)),
		})
	}
	return out
}

func unknownLabel(m UnknownMode) string {
	if m == UnknownPlaceholder {
		return ""
	}
	return m.String()
}

// Prepare returns the character stream Render would lay out for text:
// normalized, transliterated when enabled, and filtered against t. A legend
// set with WithLegendFS that cannot be read is left out.
func Prepare(text string, t *Table, opts ...Option) string {
	if t == nil {
		t = EmptyTable(Profile5x5)
	}
	o := buildOptions(opts)
	legend, _ := o.resolveLegend()
	return prepare(text, t, o, legend)
}

// placeholderCount counts runes that Filter replaced with the placeholder.
func placeholderCount(stream string) int {
	return strings.Count(stream, string(common.Placeholder))
}
