package studyai

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedDocument is returned for uploads that are not an image, a PDF or plain text.
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrEmptyDocument is returned when no text could be read from a document.
	ErrEmptyDocument = errors.New("no text could be extracted from the document")
)

// Document is an uploaded syllabus.
type Document struct {
	Name string
	// MIMEType is what the client declared. The content is sniffed and the
	// declared type is only used for logging mismatches.
	MIMEType string
	Data     []byte
}

type documentKind int

const (
	kindUnsupported documentKind = iota
	kindImage
	kindPDF
	kindText
)

// sniff classifies a document by content and returns the detected MIME type.
func sniff(doc Document) (documentKind, string) {
	m := mimetype.Detect(doc.Data)
	detected := m.String()

	kind := kindUnsupported
	switch {
	case strings.HasPrefix(detected, "image/"):
		kind = kindImage
	case m.Is("application/pdf"):
		kind = kindPDF
	default:
		for p := m; p != nil; p = p.Parent() {
			if p.Is("text/plain") {
				kind = kindText
				detected = "text/plain"
				break
			}
		}
	}

	if doc.MIMEType != "" && !m.Is(doc.MIMEType) {
		slog.Debug("declared document type differs from content",
			"declared", doc.MIMEType,
			"detected", detected,
			"name", doc.Name,
		)
	}
	return kind, detected
}

// PDFTextExtractor pulls the text layer out of a PDF.
type PDFTextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// PDFReader extracts text with github.com/ledongthuc/pdf.
type PDFReader struct{}

// ExtractText concatenates the plain text of every page, one page per line.
// Image-only PDFs yield an empty string.
func (PDFReader) ExtractText(data []byte) (text string, err error) {
	// The parser panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
