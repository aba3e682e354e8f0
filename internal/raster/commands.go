// Package raster turns glyph placements into filled rectangles and paints
// them onto page surfaces.
package raster

import (
	"github.com/ryanlewis/pixpage/internal/glyph"
	"github.com/ryanlewis/pixpage/internal/layout"
)

// Rect is a fill-rectangle command in device pixels.
type Rect struct {
	X, Y, W, H int
}

// AppendCommands appends one scale x scale square per filled cell of the
// placed glyph, row-major, clipped to the profile grid.
func AppendCommands(dst []Rect, p layout.Placement, profile glyph.Profile, scale int) []Rect {
	if p.Glyph == nil || scale <= 0 {
		return dst
	}
	p.Glyph.Cells(profile.Rows, profile.Cols, func(row, col int) {
		dst = append(dst, Rect{
			X: p.X + col*scale,
			Y: p.Y + row*scale,
			W: scale,
			H: scale,
		})
	})
	return dst
}

// Commands returns the ordered fill commands for a page's placements.
func Commands(placements []layout.Placement, profile glyph.Profile, scale int) []Rect {
	var out []Rect
	for _, p := range placements {
		out = AppendCommands(out, p, profile, scale)
	}
	return out
}
