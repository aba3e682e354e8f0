package raster

import (
	"fmt"
	"image"

	"github.com/ryanlewis/pixpage/internal/glyph"
	"github.com/ryanlewis/pixpage/internal/layout"
)

// PageFunc receives each finished page. With recycling enabled the image is
// only valid until PageFunc returns.
type PageFunc func(index int, img image.Image) error

// Painter is a layout.Sink that paints every page onto its own Surface and
// hands the finished image to a PageFunc.
//
// Sink methods cannot fail, so the first error is kept and later pages are
// skipped. Call Close after the pass to flush the last page and collect it.
type Painter struct {
	kind    Kind
	width   int
	height  int
	profile glyph.Profile
	scale   int
	recycle bool
	emit    PageFunc

	cur   Surface
	index int
	rects []Rect
	pages int
	err   error
}

// PainterOption configures a Painter.
type PainterOption func(*Painter)

// WithRecycling reuses bitmap page memory once the PageFunc returns.
func WithRecycling() PainterOption {
	return func(p *Painter) {
		p.recycle = true
	}
}

// NewPainter creates a painter for pages laid out with cfg.
func NewPainter(kind Kind, cfg layout.Config, emit PageFunc, opts ...PainterOption) *Painter {
	p := &Painter{
		kind:    kind,
		width:   cfg.Geometry.WidthPx,
		height:  cfg.Geometry.HeightPx,
		profile: cfg.Profile,
		scale:   cfg.Scale,
		emit:    emit,
		index:   -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BeginPage implements layout.Sink.
func (p *Painter) BeginPage(index int) {
	p.finishPage()
	if p.err != nil {
		return
	}
	s, err := p.newSurface()
	if err != nil {
		p.err = err
		return
	}
	p.cur = s
	p.index = index
}

func (p *Painter) newSurface() (Surface, error) {
	if p.recycle && (p.kind == Bitmap || p.kind == "") {
		if p.width <= 0 || p.height <= 0 {
			return nil, fmt.Errorf("surface size %dx%d", p.width, p.height)
		}
		return newBitmap(p.width, p.height, true), nil
	}
	return NewSurface(p.kind, p.width, p.height)
}

// Place implements layout.Sink.
func (p *Painter) Place(pl layout.Placement) {
	if p.err != nil || p.cur == nil {
		return
	}
	if p.rects == nil {
		p.rects = acquireRects()
	}
	p.rects = AppendCommands(p.rects[:0], pl, p.profile, p.scale)
	for _, r := range p.rects {
		if err := p.cur.FillRect(r); err != nil {
			p.err = fmt.Errorf("page %d: %w", p.index, err)
			return
		}
	}
}

// finishPage emits and closes the current surface.
func (p *Painter) finishPage() {
	if p.cur == nil {
		return
	}
	s := p.cur
	p.cur = nil
	defer s.Close()
	if p.err != nil {
		return
	}
	img, err := s.Image()
	if err != nil {
		p.err = fmt.Errorf("page %d: %w", p.index, err)
		return
	}
	if p.emit != nil {
		if err := p.emit(p.index, img); err != nil {
			p.err = err
			return
		}
	}
	p.pages++
}

// Pages returns the number of pages emitted so far.
func (p *Painter) Pages() int {
	return p.pages
}

// Abort drops the page in progress without emitting it. Use it instead of
// Close when the pass failed.
func (p *Painter) Abort() {
	if p.cur != nil {
		_ = p.cur.Close()
		p.cur = nil
	}
	if p.rects != nil {
		releaseRects(p.rects)
		p.rects = nil
	}
}

// Close emits the last page and returns the first error seen.
func (p *Painter) Close() error {
	p.finishPage()
	if p.rects != nil {
		releaseRects(p.rects)
		p.rects = nil
	}
	return p.err
}
