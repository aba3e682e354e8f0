package export

import (
	"fmt"
	"image"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
)

// Info is the PDF document information dictionary.
type Info struct {
	Title    string
	Subject  string
	Keywords string
	Author   string
	Creator  string
}

// PDFWriter streams pages into one PDF document. Each page is sized so the
// bitmap covers it exactly at the given resolution.
type PDFWriter struct {
	w      io.Writer
	dpmm   float64
	info   Info
	writer *pdf.PDF
	pages  int
}

// NewPDF creates a PDF writer for pages rendered at dpi.
func NewPDF(w io.Writer, dpi int, info Info) *PDFWriter {
	if dpi <= 0 {
		dpi = 300
	}
	return &PDFWriter{
		w:    w,
		dpmm: float64(dpi) / 25.4,
		info: info,
	}
}

// AddPage appends img as the next page.
func (p *PDFWriter) AddPage(img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("page %d: empty image", p.pages+1)
	}
	wmm := float64(b.Dx()) / p.dpmm
	hmm := float64(b.Dy()) / p.dpmm

	if p.writer == nil {
		p.writer = pdf.New(p.w, wmm, hmm, nil)
		p.writer.SetInfo(p.info.Title, p.info.Subject, p.info.Keywords, p.info.Author, p.info.Creator)
	} else {
		p.writer.NewPage(wmm, hmm)
	}

	c := canvas.New(wmm, hmm)
	ctx := canvas.NewContext(c)
	ctx.DrawImage(0, 0, img, canvas.DPMM(p.dpmm))
	c.RenderTo(p.writer)
	p.pages++
	return nil
}

// Pages returns the number of pages added.
func (p *PDFWriter) Pages() int {
	return p.pages
}

// Close finishes the document.
func (p *PDFWriter) Close() error {
	if p.writer == nil {
		return ErrNoPages
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
