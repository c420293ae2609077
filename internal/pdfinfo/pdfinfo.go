// Package pdfinfo inspects exported PDF bytes before they are written out.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when the bytes lack a PDF header.
var ErrNotPDF = errors.New("not a pdf document")

// A4 in points, and how far a MediaBox may drift from it.
const (
	a4Width   = 595.28
	a4Height  = 841.89
	tolerance = 3.0
)

// Info describes a parsed document. Width and Height are the first page's
// MediaBox in points.
type Info struct {
	Pages  int
	Width  float64
	Height float64
}

// IsA4 reports whether the first page is A4 portrait.
func (i Info) IsA4() bool {
	return math.Abs(i.Width-a4Width) <= tolerance && math.Abs(i.Height-a4Height) <= tolerance
}

func (i Info) String() string {
	return fmt.Sprintf("%d page(s), %.2fx%.2fpt", i.Pages, i.Width, i.Height)
}

// Inspect parses b and reports its page count and first page size.
func Inspect(b []byte) (info Info, err error) {
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		return Info{}, ErrNotPDF
	}
	// the reader panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return Info{}, fmt.Errorf("parse pdf: %w", err)
	}
	info.Pages = r.NumPage()
	if info.Pages == 0 {
		return info, errors.New("pdf has no pages")
	}

	page := r.Page(1)
	box := page.V.Key("MediaBox")
	if box.IsNull() {
		box = page.V.Key("Parent").Key("MediaBox")
	}
	if box.Len() != 4 {
		return info, errors.New("pdf first page has no media box")
	}
	info.Width = box.Index(2).Float64() - box.Index(0).Float64()
	info.Height = box.Index(3).Float64() - box.Index(1).Float64()
	return info, nil
}
