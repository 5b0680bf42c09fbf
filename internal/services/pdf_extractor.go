package services

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor extracts plain text from an uploaded document file.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// PDFExtractor extracts text from PDF files, concatenating per-page text
// with blank-line separators.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF text extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText reads every page of the PDF at path and returns the combined
// text. Any parsing problem surfaces as a single extraction error.
func (e *PDFExtractor) ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("error extracting text from PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("error extracting text from PDF: %w", err)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String()), nil
}
