package pixpage

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Result is a finished render published by a Scheduler.
type Result struct {
	// Generation is the value Submit returned for this text.
	Generation uint64
	Document   *Document
	Err        error
}

// Scheduler re-renders text as it changes, the way a live preview does.
//
// Each Submit starts a new generation. The render waits for the debounce
// delay, so a burst of submissions renders once. A newer Submit cancels a
// pending or running render of an older generation: running passes stop at
// their next yield point with ErrSuperseded. Only results whose generation is
// still current when the pass ends are published.
type Scheduler struct {
	table   *Table
	publish func(Result)
	opts    *options

	gen atomic.Uint64

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup

	pubMu sync.Mutex
}

// NewScheduler creates a scheduler rendering with table t and opts.
// publish is called from the rendering goroutine; calls never overlap.
func NewScheduler(t *Table, publish func(Result), opts ...Option) *Scheduler {
	return &Scheduler{
		table:   t,
		publish: publish,
		opts:    buildOptions(opts),
	}
}

// Submit schedules a render of text and returns its generation.
// It never blocks on rendering.
func (s *Scheduler) Submit(text string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.gen.Add(1)
	if s.closed {
		return gen
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.timer = time.AfterFunc(s.opts.debounce, func() {
		s.run(gen, text)
	})
	return gen
}

// Generation returns the latest generation handed out by Submit.
func (s *Scheduler) Generation() uint64 {
	return s.gen.Load()
}

func (s *Scheduler) current(gen uint64) bool {
	return s.gen.Load() == gen
}

func (s *Scheduler) run(gen uint64, text string) {
	s.mu.Lock()
	if s.closed || !s.current(gen) {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer cancel()

	o := *s.opts
	user := o.progress
	o.progress = func(ctx context.Context, p Progress) error {
		if !s.current(gen) {
			return ErrSuperseded
		}
		if user != nil {
			return user(ctx, p)
		}
		return nil
	}

	var pages []Page
	doc, err := render(ctx, text, s.table, &o, func(i int, img image.Image) error {
		pages = append(pages, Page{Index: i, Image: img})
		return nil
	}, false)
	if doc != nil {
		doc.Pages = pages
	}

	// a stale pass is dropped whatever its outcome
	if !s.current(gen) {
		return
	}
	if errors.Is(err, context.Canceled) {
		err = ErrSuperseded
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || s.publish == nil {
		return
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.current(gen) {
		s.publish(Result{Generation: gen, Document: doc, Err: err})
	}
}

// Close stops pending work, cancels any running pass and waits for it.
// Submit after Close does nothing.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
