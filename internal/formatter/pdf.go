package formatter

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/tordrt/ecomstats/internal/analytics"
)

// PDFFormatter renders reports into a landscape A4 document, one table per
// report.
type PDFFormatter struct {
	writer io.Writer
}

// NewPDFFormatter creates a new PDF formatter
func NewPDFFormatter(w io.Writer) *PDFFormatter {
	return &PDFFormatter{writer: w}
}

const (
	pdfMargin     = 10.0
	pdfRowHeight  = 7.0
	pdfPageWidth  = 297.0
	pdfFontSize   = 8.0
	pdfTitleSize  = 16.0
	pdfHeaderSize = 12.0
)

// FormatRun writes the whole run as a single PDF.
func (f *PDFFormatter) FormatRun(run *analytics.Run) error {
	pdf := newPDF()
	pdf.AddPage()
	pdf.SetFont("Arial", "B", pdfTitleSize)
	pdf.CellFormat(0, 10, "Ecommerce Database Analytics Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", pdfHeaderSize)
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated on: %s", run.GeneratedAt.Format(generatedLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	for i, report := range run.Reports {
		if i > 0 {
			pdf.AddPage()
		}
		writePDFReport(pdf, report)
	}

	return pdf.Output(f.writer)
}

// FormatReport writes a single report as its own PDF.
func (f *PDFFormatter) FormatReport(report analytics.Report) error {
	pdf := newPDF()
	pdf.AddPage()
	writePDFReport(pdf, report)
	return pdf.Output(f.writer)
}

func newPDF() *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	return pdf
}

func writePDFReport(pdf *gofpdf.Fpdf, report analytics.Report) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", pdfHeaderSize)
	pdf.CellFormat(0, 10, tr(report.Title), "", 1, "L", false, 0, "")

	if report.Err != nil {
		pdf.SetFont("Arial", "", pdfFontSize+2)
		pdf.MultiCell(0, pdfRowHeight, tr("Error executing query: "+report.Err.Error()), "", "L", false)
		return
	}

	width := (pdfPageWidth - 2*pdfMargin) / float64(len(report.Columns))

	header := func() {
		pdf.SetFont("Arial", "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range report.Columns {
			pdf.CellFormat(width, pdfRowHeight, col, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", pdfFontSize)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, row := range report.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-pdfMargin {
			pdf.AddPage()
			header()
		}
		for _, v := range row {
			align := "L"
			if numeric(v) {
				align = "R"
			}
			pdf.CellFormat(width, pdfRowHeight, truncate(pdf, tr(cell(v)), width), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "I", pdfFontSize)
	pdf.CellFormat(0, pdfRowHeight, fmt.Sprintf("Rows returned: %d", len(report.Rows)), "", 1, "L", false, 0, "")
}

// truncate shortens s until it fits a cell of width w.
func truncate(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}
