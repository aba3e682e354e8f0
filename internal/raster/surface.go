package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/gogpu/gg"
)

// ErrUnknownSurface is returned for an unrecognised surface kind.
var ErrUnknownSurface = errors.New("unknown surface")

// Kind selects a Surface backend.
type Kind string

const (
	// Bitmap paints into a two-colour paletted image.
	Bitmap Kind = "bitmap"
	// Vector paints through a gg drawing context.
	Vector Kind = "vector"
)

// ParseKind parses a surface name. The empty string selects Bitmap.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", Bitmap:
		return Bitmap, nil
	case Vector:
		return Vector, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSurface, s)
}

// Surface is a page-sized canvas, white when created.
type Surface interface {
	// FillRect paints r black. Parts outside the surface are ignored.
	FillRect(r Rect) error
	// Image returns the painted page.
	Image() (image.Image, error)
	Close() error
}

// NewSurface creates a white surface of the given size.
func NewSurface(kind Kind, width, height int) (Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface size %dx%d", width, height)
	}
	switch kind {
	case "", Bitmap:
		return newBitmap(width, height, false), nil
	case Vector:
		return newVector(width, height), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSurface, string(kind))
}

// Palette is the two-entry palette of bitmap pages. Index 0 is paper.
var Palette = color.Palette{color.White, color.Black}

type bitmap struct {
	img    *image.Paletted
	pooled bool
}

func newBitmap(width, height int, pooled bool) *bitmap {
	var pix []uint8
	if pooled {
		pix = acquirePix(width * height)
	} else {
		pix = make([]uint8, width*height)
	}
	return &bitmap{
		img: &image.Paletted{
			Pix:     pix,
			Stride:  width,
			Rect:    image.Rect(0, 0, width, height),
			Palette: Palette,
		},
		pooled: pooled,
	}
}

func (b *bitmap) FillRect(r Rect) error {
	area := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H).Intersect(b.img.Rect)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := b.img.Pix[y*b.img.Stride+area.Min.X : y*b.img.Stride+area.Max.X]
		for i := range row {
			row[i] = 1
		}
	}
	return nil
}

func (b *bitmap) Image() (image.Image, error) {
	return b.img, nil
}

// Close returns pooled pixel memory. The image must not be used afterwards.
func (b *bitmap) Close() error {
	if b.pooled && b.img != nil {
		releasePix(b.img.Pix)
		b.img = nil
	}
	return nil
}

type vector struct {
	dc *gg.Context
}

func newVector(width, height int) *vector {
	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.White)
	dc.SetRGB(0, 0, 0)
	return &vector{dc: dc}
}

func (v *vector) FillRect(r Rect) error {
	v.dc.DrawRectangle(float64(r.X), float64(r.Y), float64(r.W), float64(r.H))
	return v.dc.Fill()
}

func (v *vector) Image() (image.Image, error) {
	if err := v.dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush surface: %w", err)
	}
	return v.dc.Image(), nil
}

func (v *vector) Close() error {
	return v.dc.Close()
}
