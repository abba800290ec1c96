package exporter

import (
	"io"

	"github.com/go-pdf/fpdf"
)

const pdfRowHeight = 7.0

// PDFEncoder implements RowEncoder for PDF generation.
// It lays the result out as a simple grid with equal column widths.
// The whole document is built in memory and written on Flush.
type PDFEncoder struct {
	pdf       *fpdf.Fpdf
	w         io.Writer
	translate func(string) string
	colWidth  float64
	err       error
	flushed   bool
}

// NewPDFEncoder creates a new landscape A4 PDF encoder.
func NewPDFEncoder(w io.Writer) *PDFEncoder {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 9)
	pdf.AddPage()
	return &PDFEncoder{
		pdf:       pdf,
		w:         w,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// WriteHeader writes the table headers in bold.
func (e *PDFEncoder) WriteHeader(columns []string) error {
	if e.err != nil {
		return e.err
	}
	if len(columns) == 0 {
		return nil
	}

	pageWidth, _ := e.pdf.GetPageSize()
	left, _, right, _ := e.pdf.GetMargins()
	e.colWidth = (pageWidth - left - right) / float64(len(columns))

	e.pdf.SetFont("Arial", "B", 9)
	for _, col := range columns {
		e.pdf.CellFormat(e.colWidth, pdfRowHeight, e.fit(col), "1", 0, "C", false, 0, "")
	}
	e.pdf.Ln(-1)
	e.pdf.SetFont("Arial", "", 9)
	return e.pdf.Error()
}

// WriteRow writes a single row of data. Cells that do not fit are truncated.
func (e *PDFEncoder) WriteRow(values []any) error {
	if e.err != nil {
		return e.err
	}
	if len(values) == 0 {
		return nil
	}
	if e.colWidth == 0 {
		pageWidth, _ := e.pdf.GetPageSize()
		left, _, right, _ := e.pdf.GetMargins()
		e.colWidth = (pageWidth - left - right) / float64(len(values))
	}

	for _, v := range values {
		text := "NULL"
		if v != nil {
			text = toString(v)
		}
		e.pdf.CellFormat(e.colWidth, pdfRowHeight, e.fit(text), "1", 0, "L", false, 0, "")
	}
	e.pdf.Ln(-1)
	return e.pdf.Error()
}

// fit converts to the core font encoding and trims to the column width.
func (e *PDFEncoder) fit(s string) string {
	s = e.translate(s)
	limit := e.colWidth - 2*e.pdf.GetCellMargin()
	if limit <= 0 || e.pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && e.pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// Flush writes the PDF to the underlying writer. It may only run once.
func (e *PDFEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if e.flushed {
		return nil
	}
	e.flushed = true
	if err := e.pdf.Output(e.w); err != nil {
		e.err = err
	}
	return e.err
}

// Error returns any stored error.
func (e *PDFEncoder) Error() error {
	if e.err != nil {
		return e.err
	}
	return e.pdf.Error()
}

// Close flushes and satisfies io.Closer.
func (e *PDFEncoder) Close() error {
	return e.Flush()
}
