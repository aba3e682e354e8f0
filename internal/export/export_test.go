package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/tiff"
)

func TestPageFileName(t *testing.T) {
	tests := []struct {
		base, ext    string
		index, total int
		want         string
	}{
		{"out", ".png", 0, 1, "out.png"},
		{"out", ".png", 0, 0, "out.png"},
		{"out", ".png", 0, 3, "out_page1.png"},
		{"dir/scan", ".tiff", 2, 3, "dir/scan_page3.tiff"},
	}
	for _, tt := range tests {
		if got := PageFileName(tt.base, tt.ext, tt.index, tt.total); got != tt.want {
			t.Errorf("PageFileName(%q, %q, %d, %d) = %q, want %q", tt.base, tt.ext, tt.index, tt.total, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", PNG, false},
		{".PNG", PNG, false},
		{"tif", TIFF, false},
		{"tiff", TIFF, false},
		{"pdf", PDF, false},
		{"jpeg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitOutput(t *testing.T) {
	tests := []struct {
		in     string
		base   string
		format Format
		ok     bool
	}{
		{"page.png", "page", PNG, true},
		{"a/b.TIF", "a/b", TIFF, true},
		{"book.pdf", "book", PDF, true},
		{"notes.v2", "notes.v2", "", false},
		{"output", "output", "", false},
	}
	for _, tt := range tests {
		base, f, ok := SplitOutput(tt.in)
		if base != tt.base || f != tt.format || ok != tt.ok {
			t.Errorf("SplitOutput(%q) = %q, %q, %t; want %q, %q, %t", tt.in, base, f, ok, tt.base, tt.format, tt.ok)
		}
	}
}

func testPage() image.Image {
	img := image.NewPaletted(image.Rect(0, 0, 8, 6), color.Palette{color.White, color.Black})
	img.SetColorIndex(1, 1, 1)
	img.SetColorIndex(6, 4, 1)
	return img
}

func TestEncodeImage(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, PNG, testPage()); err != nil {
		t.Fatalf("EncodeImage(png): %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	checkPage(t, img)

	buf.Reset()
	if err := EncodeImage(&buf, TIFF, testPage()); err != nil {
		t.Fatalf("EncodeImage(tiff): %v", err)
	}
	img, err = tiff.Decode(&buf)
	if err != nil {
		t.Fatalf("tiff.Decode: %v", err)
	}
	checkPage(t, img)

	if err := EncodeImage(&buf, PDF, testPage()); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("EncodeImage(pdf) error = %v, want ErrUnknownFormat", err)
	}
}

func checkPage(t *testing.T, img image.Image) {
	t.Helper()
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Fatalf("bounds = %v, want 8x6", b)
	}
	gray := func(x, y int) uint8 {
		return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
	}
	if gray(1, 1) != 0 || gray(6, 4) != 0 {
		t.Error("black pixels lost")
	}
	if gray(0, 0) != 255 {
		t.Error("white pixel lost")
	}
}

func TestPDFWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewPDF(&buf, 300, Info{Title: "test", Creator: "pixpage"})
	if err := w.Close(); !errors.Is(err, ErrNoPages) {
		t.Fatalf("Close without pages = %v, want ErrNoPages", err)
	}

	w = NewPDF(&buf, 300, Info{Title: "test"})
	for i := 0; i < 2; i++ {
		if err := w.AddPage(testPage()); err != nil {
			t.Fatalf("AddPage: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Pages() != 2 {
		t.Errorf("Pages() = %d, want 2", w.Pages())
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestFileSet(t *testing.T) {
	t.Run("single_page_renamed", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out")
		fs, err := NewFileSet(base, PNG, 300)
		if err != nil {
			t.Fatalf("NewFileSet: %v", err)
		}
		if err := fs.WritePage(0, testPage()); err != nil {
			t.Fatalf("WritePage: %v", err)
		}
		paths, err := fs.Close()
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
		if diff := cmp.Diff([]string{base + ".png"}, paths); diff != "" {
			t.Errorf("paths mismatch (-want +got):\n%s", diff)
		}
		if _, err := os.Stat(base + "_page1.png"); !os.IsNotExist(err) {
			t.Errorf("temporary page name left behind: %v", err)
		}
		if n := fs.Sizes()[0]; n <= 0 {
			t.Errorf("size = %d", n)
		}
	})

	t.Run("multiple_pages", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out")
		fs, _ := NewFileSet(base, TIFF, 300)
		for i := 0; i < 3; i++ {
			if err := fs.WritePage(i, testPage()); err != nil {
				t.Fatalf("WritePage(%d): %v", i, err)
			}
		}
		paths, err := fs.Close()
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
		want := []string{base + "_page1.tiff", base + "_page2.tiff", base + "_page3.tiff"}
		if diff := cmp.Diff(want, paths); diff != "" {
			t.Errorf("paths mismatch (-want +got):\n%s", diff)
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("stat %s: %v", p, err)
			}
		}
	})

	t.Run("pdf_single_file", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "book")
		fs, _ := NewFileSet(base, PDF, 150, WithInfo(Info{Title: "book"}))
		for i := 0; i < 2; i++ {
			if err := fs.WritePage(i, testPage()); err != nil {
				t.Fatalf("WritePage(%d): %v", i, err)
			}
		}
		paths, err := fs.Close()
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
		if diff := cmp.Diff([]string{base + ".pdf"}, paths); diff != "" {
			t.Errorf("paths mismatch (-want +got):\n%s", diff)
		}
		data, err := os.ReadFile(paths[0])
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Error("not a PDF file")
		}
	})

	t.Run("no_pages", func(t *testing.T) {
		fs, _ := NewFileSet(filepath.Join(t.TempDir(), "x"), PNG, 300)
		if _, err := fs.Close(); !errors.Is(err, ErrNoPages) {
			t.Errorf("Close error = %v, want ErrNoPages", err)
		}
	})

	t.Run("bad_format", func(t *testing.T) {
		if _, err := NewFileSet("x", "bmp", 300); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("NewFileSet error = %v, want ErrUnknownFormat", err)
		}
	})
}
