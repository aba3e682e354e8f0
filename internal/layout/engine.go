// Package layout implements the word wrap and pagination state machine that
// places glyphs on fixed-size pages.
//
// The engine is a single sequential pass: every wrap and page decision
// depends on the cursor left by the previous token. Output is streamed to a
// Sink as page starts and glyph placements, so a caller can paint, record or
// count without the engine holding page images.
package layout

import (
	"context"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ryanlewis/pixpage/internal/common"
	"github.com/ryanlewis/pixpage/internal/debug"
	"github.com/ryanlewis/pixpage/internal/glyph"
)

// DefaultYieldInterval is the wall-clock budget between cooperative yields.
const DefaultYieldInterval = 50 * time.Millisecond

// Geometry is the page size and margin in device pixels.
type Geometry struct {
	WidthPx  int
	HeightPx int
	MarginPx int
}

// Config fixes everything a pass needs besides the text.
type Config struct {
	Profile  glyph.Profile
	Geometry Geometry
	Scale    int
	LineGap  int
	Compact  bool
}

// LineAdvance is the vertical distance between consecutive lines.
func (c Config) LineAdvance() int {
	return (c.Profile.Rows + c.LineGap) * c.Scale
}

// Placement is one glyph drawn with its top-left cell at (X, Y).
type Placement struct {
	Page  int
	X, Y  int
	Rune  rune
	Glyph *glyph.Glyph
}

// Sink receives the output of a pass. BeginPage is called once per page, in
// order, before any placement on that page.
type Sink interface {
	BeginPage(index int)
	Place(p Placement)
}

// Progress is reported at yield points.
type Progress struct {
	Done    int
	Total   int
	Percent int
	Pages   int
}

// YieldFunc is called at cooperative yield points. Returning an error aborts
// the pass with that error.
type YieldFunc func(ctx context.Context, p Progress) error

// Stats describes a finished pass.
type Stats struct {
	Pages          int
	X, Y           int
	Lines          int
	Tokens         int
	Glyphs         int
	Wraps          int
	DiscardedSpace int
	Yields         int
	Done           int
	Total          int
}

// Percent returns the completion percentage for stats.
func (s Stats) Percent() int {
	return percent(s.Done, s.Total)
}

// Engine runs layout passes. An Engine holds no per-pass state and may run
// passes from several goroutines at once.
type Engine struct {
	table    *glyph.Table
	cfg      Config
	yield    YieldFunc
	interval time.Duration
	now      func() time.Time
	session  *debug.Session
}

// Option configures an Engine.
type Option func(*Engine)

// WithYield installs a yield hook called at most once per interval.
// A negative interval selects DefaultYieldInterval.
func WithYield(fn YieldFunc, interval time.Duration) Option {
	return func(e *Engine) {
		e.yield = fn
		if interval < 0 {
			interval = DefaultYieldInterval
		}
		e.interval = interval
	}
}

// WithClock replaces time.Now for yield gating.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDebug attaches a debug session.
func WithDebug(s *debug.Session) Option {
	return func(e *Engine) {
		e.session = s
	}
}

// New creates an Engine. table may be empty but not nil.
func New(table *glyph.Table, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		table:    table,
		cfg:      cfg,
		interval: DefaultYieldInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// token is a word or a single space.
type token struct {
	text  string
	space bool
	runes int
}

// state is the cursor for one pass.
type state struct {
	e        *Engine
	ctx      context.Context
	sink     Sink
	page     int
	x, y     int
	stats    Stats
	lastTick time.Time
}

// Run lays out text, which must already be normalized and filtered, and
// streams pages and placements to sink. The first page is always begun.
// Run fails only when ctx is done or the yield hook returns an error.
func (e *Engine) Run(ctx context.Context, text string, sink Sink) (Stats, error) {
	if e.table == nil {
		return Stats{}, common.ErrNilTable
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	g := e.cfg.Geometry
	s := &state{
		e:        e,
		ctx:      ctx,
		sink:     sink,
		x:        g.MarginPx,
		y:        g.MarginPx,
		lastTick: e.now(),
	}
	s.stats.Total = utf8.RuneCountInString(text)

	e.session.Emit("layout", "Start", debug.LayoutStartData{
		Profile:  e.cfg.Profile.Name,
		WidthPx:  g.WidthPx,
		HeightPx: g.HeightPx,
		MarginPx: g.MarginPx,
		Scale:    e.cfg.Scale,
		LineGap:  e.cfg.LineGap,
		Compact:  e.cfg.Compact,
		Runes:    s.stats.Total,
	})

	sink.BeginPage(0)

	lines := []string{text}
	if !e.cfg.Compact {
		lines = strings.Split(text, "\n")
	}

	var toks []token
	for _, line := range lines {
		toks = tokenize(toks[:0], line, e.cfg.Compact)
		for _, tok := range toks {
			if err := s.place(tok); err != nil {
				return s.finish(), err
			}
		}
		s.breakLine("newline")
		s.stats.Lines++
		if !e.cfg.Compact {
			s.stats.Done++
		}
	}

	stats := s.finish()
	e.session.Emit("layout", "End", debug.LayoutEndData{
		Pages:  stats.Pages,
		Lines:  stats.Lines,
		Tokens: stats.Tokens,
		Glyphs: stats.Glyphs,
		Wraps:  stats.Wraps,
		X:      stats.X,
		Y:      stats.Y,
	})
	return stats, nil
}

// place handles one token: discard, wrap, then draw or advance.
func (s *state) place(tok token) error {
	cfg := s.e.cfg
	g := cfg.Geometry
	s.stats.Tokens++

	width := s.width(tok)
	if tok.space && s.x == g.MarginPx {
		s.stats.Done += tok.runes
		s.stats.DiscardedSpace++
		return nil
	}
	if s.x+width > g.WidthPx-g.MarginPx {
		if tok.space {
			s.stats.Done += tok.runes
			s.stats.DiscardedSpace++
			return nil
		}
		s.stats.Wraps++
		s.breakLine("wrap")
	}

	if tok.space {
		s.x += cfg.Profile.SpaceWidth * cfg.Scale
	} else {
		for _, r := range tok.text {
			gl := s.e.table.Resolve(r)
			adv := gl.Advance(cfg.Profile.Cols)
			s.sink.Place(Placement{Page: s.page, X: s.x, Y: s.y, Rune: r, Glyph: gl})
			if s.e.session != nil {
				s.traceGlyph(r, adv)
			}
			s.stats.Glyphs++
			s.x += adv * cfg.Scale
		}
	}
	s.stats.Done += tok.runes

	return s.maybeYield()
}

func (s *state) traceGlyph(r rune, adv int) {
	_, defined := s.e.table.Lookup(r)
	s.e.session.Emit("layout", "Glyph", debug.GlyphData{
		Page:    s.page,
		X:       s.x,
		Y:       s.y,
		Rune:    r,
		Advance: adv,
		Kind:    debug.ClassifyGlyph(r, defined, s.e.table.Notdef() != nil),
	})
}

// width is the pixel advance of a token.
func (s *state) width(tok token) int {
	cfg := s.e.cfg
	if tok.space {
		return cfg.Profile.SpaceWidth * cfg.Scale
	}
	w := 0
	for _, r := range tok.text {
		w += s.e.table.Resolve(r).Advance(cfg.Profile.Cols)
	}
	return w * cfg.Scale
}

// breakLine moves to the next line, starting a page when the new line would
// begin below the bottom margin.
func (s *state) breakLine(reason string) {
	g := s.e.cfg.Geometry
	s.x = g.MarginPx
	s.y += s.e.cfg.LineAdvance()
	if s.y > g.HeightPx-g.MarginPx {
		s.page++
		s.x, s.y = g.MarginPx, g.MarginPx
		s.sink.BeginPage(s.page)
		s.e.session.Emit("layout", "Page", debug.PageData{Index: s.page, Reason: reason})
		return
	}
	switch reason {
	case "wrap":
		s.e.session.Emit("layout", "Wrap", debug.WrapData{Page: s.page, Y: s.y})
	case "newline":
		s.e.session.Emit("layout", "Break", debug.WrapData{Page: s.page, Y: s.y})
	}
}

// maybeYield is the cooperative yield point, gated by wall-clock time.
func (s *state) maybeYield() error {
	now := s.e.now()
	if now.Sub(s.lastTick) < s.e.interval {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.stats.Yields++
	p := Progress{
		Done:    s.stats.Done,
		Total:   s.stats.Total,
		Percent: percent(s.stats.Done, s.stats.Total),
		Pages:   s.page + 1,
	}
	s.e.session.Emit("layout", "Yield", debug.YieldData{Percent: p.Percent, Pages: p.Pages})
	if s.e.yield != nil {
		if err := s.e.yield(s.ctx, p); err != nil {
			return err
		}
	}
	runtime.Gosched()
	s.lastTick = s.e.now()
	return nil
}

func (s *state) finish() Stats {
	s.stats.Pages = s.page + 1
	s.stats.X, s.stats.Y = s.x, s.y
	return s.stats
}

// tokenize splits a line into words and single-space tokens, appending to
// dst. In compact mode consecutive space tokens collapse to one.
func tokenize(dst []token, line string, compact bool) []token {
	start := -1
	flush := func(end int) {
		if start >= 0 {
			word := line[start:end]
			dst = append(dst, token{text: word, runes: utf8.RuneCountInString(word)})
			start = -1
		}
	}
	for i, r := range line {
		if r != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
		if compact && len(dst) > 0 && dst[len(dst)-1].space {
			continue
		}
		dst = append(dst, token{text: " ", space: true, runes: 1})
	}
	flush(len(line))
	return dst
}

// percent is round(done/total*100) clamped to [0, 100]. An empty input is
// complete.
func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	p := (done*200 + total) / (2 * total)
	return min(max(p, 0), 100)
}
