package report

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	pdfMarginMM      = 15.0
	pdfTitleFontSize = 16.0
	pdfHeadFontSize  = 13.0
	pdfBodyFontSize  = 11.0
	pdfLineHeightMM  = 5.5
)

// RenderPDF renders the document to PDF bytes and validates the result
// before returning it.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginMM, pdfMarginMM, pdfMarginMM)
	pdf.SetAutoPageBreak(true, pdfMarginMM)
	pdf.AddPage()

	// Core fonts only cover cp1252; translate what we can
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", pdfTitleFontSize)
	pdf.MultiCell(0, pdfLineHeightMM+2, tr(doc.Title), "", "L", false)
	pdf.Ln(4)

	for _, section := range doc.Sections {
		pdf.SetFont("Helvetica", "B", pdfHeadFontSize)
		pdf.MultiCell(0, pdfLineHeightMM, tr(section.Heading), "", "L", false)
		pdf.Ln(1)

		pdf.SetFont("Helvetica", "", pdfBodyFontSize)
		pdf.MultiCell(0, pdfLineHeightMM, tr(section.Body), "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error rendering PDF: %w", err)
	}

	if err := api.Validate(bytes.NewReader(buf.Bytes()), nil); err != nil {
		return nil, fmt.Errorf("generated PDF failed validation: %w", err)
	}

	log.Debugf("Rendered PDF report %q (%d bytes)", doc.Title, buf.Len())
	return buf.Bytes(), nil
}
