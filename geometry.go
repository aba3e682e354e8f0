package pixpage

import (
	"fmt"
	"math"
	"strings"
)

// PageSize is a physical page in millimetres.
type PageSize struct {
	Name     string
	WidthMM  float64
	HeightMM float64
}

// Page sizes accepted by ParsePageSize.
var (
	A4     = PageSize{Name: "a4", WidthMM: 210, HeightMM: 297}
	A5     = PageSize{Name: "a5", WidthMM: 148, HeightMM: 210}
	Letter = PageSize{Name: "letter", WidthMM: 215.9, HeightMM: 279.4}
)

// PageSizes returns the named page sizes.
func PageSizes() []PageSize {
	return []PageSize{A4, A5, Letter}
}

// ParsePageSize finds a page size by name, case-insensitively.
// The empty string selects A4.
func ParsePageSize(name string) (PageSize, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return A4, nil
	}
	for _, s := range PageSizes() {
		if s.Name == n {
			return s, nil
		}
	}
	return PageSize{}, fmt.Errorf("unknown page size %q (want a4, a5 or letter)", name)
}

// String returns the size name, or its dimensions when unnamed.
func (s PageSize) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%gx%gmm", s.WidthMM, s.HeightMM)
}

// PixelsFromMM converts a length to device pixels, rounding down.
func PixelsFromMM(mm float64, dpi int) int {
	return int(math.Floor(mm / 25.4 * float64(dpi)))
}

// PageGeometry returns the pixel geometry of size at dpi with the given
// margin on every side.
func PageGeometry(size PageSize, dpi int, marginMM float64) Geometry {
	return Geometry{
		WidthPx:  PixelsFromMM(size.WidthMM, dpi),
		HeightPx: PixelsFromMM(size.HeightMM, dpi),
		MarginPx: PixelsFromMM(marginMM, dpi),
	}
}

// ValidateGeometry checks that at least one glyph cell grid of profile at
// scale fits inside the margins.
//
// Checks performed:
//   - the page is at least one pixel in each direction
//   - the margin is not negative
//   - the content box is as wide as one glyph and as tall as one line
func ValidateGeometry(g Geometry, p Profile, scale int) error {
	if g.WidthPx <= 0 || g.HeightPx <= 0 {
		return fmt.Errorf("%w: page is %dx%d px", ErrInvalidGeometry, g.WidthPx, g.HeightPx)
	}
	if g.MarginPx < 0 {
		return fmt.Errorf("%w: negative margin %d px", ErrInvalidGeometry, g.MarginPx)
	}
	contentW := g.WidthPx - 2*g.MarginPx
	contentH := g.HeightPx - 2*g.MarginPx
	if contentW < p.Cols*scale || contentH < p.Rows*scale {
		return fmt.Errorf("%w: %dx%d px content area cannot hold a %dx%d glyph at scale %d",
			ErrInvalidGeometry, max(contentW, 0), max(contentH, 0), p.Rows, p.Cols, scale)
	}
	return nil
}
