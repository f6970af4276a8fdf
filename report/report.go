// Package report renders completed analyses as Markdown, sanitized
// HTML, and PDF documents.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Section is one titled block of a rendered document.
type Section struct {
	Heading string
	Body    string
}

// Document is a renderer-independent report layout.
type Document struct {
	Title    string
	Sections []Section
}

// MarkdownFilename builds the download filename for a full report,
// e.g. "Full_Report_Acme_2026-08-26.md".
func MarkdownFilename(companyName string, date time.Time) string {
	return fmt.Sprintf("Full_Report_%s_%s.md", sanitizeFilenamePart(companyName), date.Format("2006-01-02"))
}

// PDFFilename builds the download filename for a PDF report.
func PDFFilename(companyName string, date time.Time) string {
	return fmt.Sprintf("Full_Report_%s_%s.pdf", sanitizeFilenamePart(companyName), date.Format("2006-01-02"))
}

func sanitizeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"\"", "",
	)
	return replacer.Replace(s)
}

// Markdown renders the document as a Markdown string.
func (d Document) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# " + d.Title + "\n")
	for _, section := range d.Sections {
		sb.WriteString("\n## " + section.Heading + "\n\n")
		sb.WriteString(strings.TrimSpace(section.Body))
		sb.WriteString("\n")
	}
	return sb.String()
}
