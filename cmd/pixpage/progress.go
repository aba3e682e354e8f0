package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ryanlewis/pixpage"
	"golang.org/x/term"
)

// maxBarWidth caps the bar so wide terminals don't get a wall of '#'.
const maxBarWidth = 40

// progressBar redraws a single status line on a terminal. A nil bar draws
// nothing.
type progressBar struct {
	w     io.Writer
	width int
	drawn bool
}

// newProgressBar returns a bar for w, or nil when w is not a terminal.
func newProgressBar(w io.Writer) *progressBar {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	return &progressBar{w: w, width: width}
}

// update has the signature of pixpage.ProgressFunc.
func (b *progressBar) update(_ context.Context, p pixpage.Progress) error {
	if b == nil {
		return nil
	}
	fmt.Fprint(b.w, "\r"+b.line(p))
	b.drawn = true
	return nil
}

func (b *progressBar) line(p pixpage.Progress) string {
	label := fmt.Sprintf(" %3d%% page %d", p.Percent, p.Pages)
	barWidth := min(b.width-len(label)-3, maxBarWidth)
	if barWidth < 10 {
		return strings.TrimSpace(label)
	}
	filled := barWidth * min(max(p.Percent, 0), 100) / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]" + label
}

// finish clears the line if anything was drawn.
func (b *progressBar) finish() {
	if b == nil || !b.drawn {
		return
	}
	fmt.Fprint(b.w, "\r"+strings.Repeat(" ", max(b.width-1, 0))+"\r")
	b.drawn = false
}
