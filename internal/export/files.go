package export

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/ryanlewis/pixpage/internal/debug"
)

// FileSet writes pages to disk as they are finished.
//
// The page count is unknown while pages stream in, so single-image formats
// are written under their multi-page names and renamed to base+ext on Close
// when only one page was produced.
type FileSet struct {
	base    string
	format  Format
	dpi     int
	info    Info
	session *debug.Session

	paths []string
	sizes []int64

	pdfFile *os.File
	pdfBuf  *bufio.Writer
	pdfCnt  *countingWriter
	pdf     *PDFWriter
}

// FileSetOption configures a FileSet.
type FileSetOption func(*FileSet)

// WithInfo sets PDF document information.
func WithInfo(info Info) FileSetOption {
	return func(f *FileSet) {
		f.info = info
	}
}

// WithDebug attaches a debug session.
func WithDebug(s *debug.Session) FileSetOption {
	return func(f *FileSet) {
		f.session = s
	}
}

// NewFileSet prepares to write pages under base (a path without extension).
func NewFileSet(base string, format Format, dpi int, opts ...FileSetOption) (*FileSet, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	f := &FileSet{base: base, format: format, dpi: dpi}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// DPI returns the resolution pages are placed at in PDF output.
func (f *FileSet) DPI() int {
	return f.dpi
}

// WritePage encodes one page. Its signature matches raster.PageFunc.
func (f *FileSet) WritePage(index int, img image.Image) error {
	if f.format.MultiPage() {
		return f.writePDFPage(index, img)
	}

	path := PageFileName(f.base, f.format.Ext(), index, 2)
	n, err := writeFile(path, func(w io.Writer) error {
		return EncodeImage(w, f.format, img)
	})
	if err != nil {
		return fmt.Errorf("page %d: %w", index+1, err)
	}
	f.paths = append(f.paths, path)
	f.sizes = append(f.sizes, n)
	f.session.Emit("export", "Page", debug.ExportData{Page: index, Path: path, Format: string(f.format), Bytes: n})
	return nil
}

func (f *FileSet) writePDFPage(index int, img image.Image) error {
	if f.pdf == nil {
		path := f.base + f.format.Ext()
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		f.pdfFile = file
		f.pdfCnt = &countingWriter{w: file}
		f.pdfBuf = bufio.NewWriter(f.pdfCnt)
		f.pdf = NewPDF(f.pdfBuf, f.dpi, f.info)
		f.paths = append(f.paths, path)
	}
	if err := f.pdf.AddPage(img); err != nil {
		return err
	}
	f.session.Emit("export", "Page", debug.ExportData{Page: index, Path: f.paths[0], Format: string(f.format)})
	return nil
}

// Close finishes the output and returns the written paths in page order.
func (f *FileSet) Close() ([]string, error) {
	if f.format.MultiPage() {
		return f.closePDF()
	}
	if len(f.paths) == 0 {
		return nil, ErrNoPages
	}
	if len(f.paths) == 1 {
		single := PageFileName(f.base, f.format.Ext(), 0, 1)
		if err := os.Rename(f.paths[0], single); err != nil {
			return f.paths, err
		}
		f.paths[0] = single
	}
	return f.paths, nil
}

func (f *FileSet) closePDF() ([]string, error) {
	if f.pdf == nil {
		return nil, ErrNoPages
	}
	err := f.pdf.Close()
	if ferr := f.pdfBuf.Flush(); err == nil {
		err = ferr
	}
	if cerr := f.pdfFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return f.paths, err
	}
	f.session.Emit("export", "Done", debug.ExportData{Page: f.pdf.Pages(), Path: f.paths[0], Format: string(f.format), Bytes: f.pdfCnt.n})
	return f.paths, nil
}

// Sizes returns the byte size of each written image file.
func (f *FileSet) Sizes() []int64 {
	return f.sizes
}

func writeFile(path string, encode func(io.Writer) error) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: file}
	bw := bufio.NewWriter(cw)
	err = encode(bw)
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
