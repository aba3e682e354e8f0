// Package export encodes page images as PNG, TIFF or PDF.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"
)

var (
	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrNoPages is returned when a document is closed without pages.
	ErrNoPages = errors.New("no pages to export")
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	PNG  Format = "png"
	TIFF Format = "tiff"
	PDF  Format = "pdf"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{PNG, TIFF, PDF}
}

// ParseFormat parses a format name. "tif" is accepted for TIFF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return PNG, nil
	case "tif", "tiff":
		return TIFF, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(filepath.Ext(path))
	return f, err == nil
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// MultiPage reports whether one file holds every page.
func (f Format) MultiPage() bool {
	return f == PDF
}

// PageFileName names the file for page index (0-based) of total pages:
// base+ext for a single page, base_page<N>+ext otherwise.
func PageFileName(base, ext string, index, total int) string {
	if total <= 1 {
		return base + ext
	}
	return base + "_page" + strconv.Itoa(index+1) + ext
}

// SplitOutput separates an output path into base and extension. An
// extension that is not a known format is kept as part of the base.
func SplitOutput(out string) (base string, format Format, ok bool) {
	ext := filepath.Ext(out)
	if f, known := FormatFromPath(out); known {
		return strings.TrimSuffix(out, ext), f, true
	}
	return out, "", false
}

// EncodeImage writes img in a single-image format.
func EncodeImage(w io.Writer, f Format, img image.Image) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case PDF:
		return fmt.Errorf("%w: %s is multi-page", ErrUnknownFormat, f)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}
