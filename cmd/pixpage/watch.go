package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/ryanlewis/pixpage"
)

// watch re-renders the --input file whenever it changes until ctx is done.
// Edits that arrive while a render runs supersede it.
func watch(ctx context.Context, c *cli, table *pixpage.Table, opts []pixpage.Option,
	base string, format pixpage.Format, stdout, stderr io.Writer) int {
	if c.input == "" || c.input == "-" {
		fmt.Fprintln(stderr, "Error: --watch needs --input FILE")
		return exitError
	}

	// mu guards status and serializes writes from the render goroutine
	var mu sync.Mutex
	warnf := func(format string, args ...any) {
		mu.Lock()
		fmt.Fprintf(stderr, format, args...)
		mu.Unlock()
	}
	status := exitOK
	var written []string
	publish := func(r pixpage.Result) {
		mu.Lock()
		defer mu.Unlock()
		if r.Err != nil {
			if !errors.Is(r.Err, pixpage.ErrSuperseded) {
				fmt.Fprintf(stderr, "Error rendering revision %d: %v\n", r.Generation, r.Err)
			}
			return
		}
		doc := r.Document
		printWarnings(stderr, doc)
		status = c.status(doc)
		if doc.PageCount == 0 {
			fmt.Fprintf(stderr, "Revision %d: nothing to render\n", r.Generation)
			return
		}
		paths, err := doc.WriteFiles(base, format)
		if err != nil {
			fmt.Fprintf(stderr, "Error writing revision %d: %v\n", r.Generation, err)
			return
		}
		if err := removeStale(written, paths); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
		written = paths
		printSaved(stdout, paths, doc)
	}

	s := pixpage.NewScheduler(table, publish, opts...)

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	var (
		lastMod  time.Time
		lastSize int64 = -1
		failed   bool
	)
	for {
		info, err := os.Stat(c.input)
		switch {
		case err != nil:
			if !failed {
				warnf("Warning: %v\n", err)
				failed = true
			}
		case !info.ModTime().Equal(lastMod) || info.Size() != lastSize:
			failed = false
			data, err := os.ReadFile(c.input)
			if err != nil {
				warnf("Warning: %v\n", err)
				break
			}
			lastMod, lastSize = info.ModTime(), info.Size()
			gen := s.Submit(string(data))
			warnf("Rendering revision %d\n", gen)
		}

		select {
		case <-ctx.Done():
			s.Close()
			mu.Lock()
			defer mu.Unlock()
			return status
		case <-ticker.C:
		}
	}
}

// removeStale deletes files of an earlier revision that the current one did
// not rewrite, such as trailing pages after the text got shorter.
func removeStale(prev, cur []string) error {
	keep := make(map[string]bool, len(cur))
	for _, p := range cur {
		keep[p] = true
	}
	var errs []error
	for _, p := range prev {
		if keep[p] {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
