// Package extract turns uploaded documents into plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/jonwraymond/matchcache/observe"
)

// Extractor converts a document to text. Failures yield "" and are logged;
// callers treat empty text as an unusable document.
type Extractor interface {
	Extract(ctx context.Context, data []byte) string
}

// PDFExtractor extracts the text layer of a PDF, page by page.
type PDFExtractor struct {
	logger observe.Logger
}

// NewPDFExtractor creates a PDF extractor. A nil logger discards failures.
func NewPDFExtractor(logger observe.Logger) *PDFExtractor {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &PDFExtractor{logger: logger}
}

// Extract joins the non-empty text of each page with newlines.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) string {
	text, err := pdfText(ctx, data)
	if err != nil {
		e.logger.Warn(ctx, "pdf extraction failed", observe.F("bytes", len(data)), observe.Err(err))
		return ""
	}
	return text
}

func pdfText(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract: malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		t, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract: page %d: %w", i, err)
		}
		if t = strings.TrimSpace(t); t != "" {
			pages = append(pages, t)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// PlainExtractor accepts UTF-8 text documents as-is.
type PlainExtractor struct {
	logger observe.Logger
}

// NewPlainExtractor creates a plain-text extractor.
func NewPlainExtractor(logger observe.Logger) *PlainExtractor {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &PlainExtractor{logger: logger}
}

// Extract returns the trimmed text, or "" for invalid UTF-8.
func (e *PlainExtractor) Extract(ctx context.Context, data []byte) string {
	if !utf8.Valid(data) {
		e.logger.Warn(ctx, "text upload is not valid UTF-8", observe.F("bytes", len(data)))
		return ""
	}
	return strings.TrimSpace(string(data))
}

var (
	_ Extractor = (*PDFExtractor)(nil)
	_ Extractor = (*PlainExtractor)(nil)
)
