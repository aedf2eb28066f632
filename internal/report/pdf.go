package report

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// Document is a titled table handed to a PDFWriter
type Document struct {
	Title     string
	Generated string
	Head      []string
	Rows      [][]string
}

// PDFWriter renders a Document as PDF
type PDFWriter interface {
	WritePDF(w io.Writer, doc Document) error
}

// FPDF renders documents on A4 portrait pages
type FPDF struct {
	// Widths are the column widths in mm; zero spreads 170mm evenly
	Widths []float64
}

const (
	pdfMarginLeft = 20.0
	pdfTableTop   = 60.0
	pdfRowHeight  = 7.0
	pdfTableWidth = 170.0
)

// WritePDF writes doc to w
func (p FPDF) WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginLeft, 20, pdfMarginLeft)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 20)
	pdf.Text(pdfMarginLeft, 30, tr(doc.Title))
	pdf.SetFontSize(12)
	pdf.Text(pdfMarginLeft, 45, tr(doc.Generated))

	widths := p.columnWidths(len(doc.Head))

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(0, 102, 204)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range doc.Head {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetY(pdfTableTop)
	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for n, row := range doc.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		fill := n%2 == 1
		pdf.SetFillColor(245, 245, 245)
		for i := range doc.Head {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(widths[i], pdfRowHeight, tr(cell), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func (p FPDF) columnWidths(n int) []float64 {
	if len(p.Widths) >= n {
		return p.Widths
	}
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = pdfTableWidth / float64(n)
	}
	return widths
}
