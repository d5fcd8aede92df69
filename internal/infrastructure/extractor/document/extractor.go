// Package document extracts plain text from resume files by declared type.
package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

const (
	ExtPDF  = "pdf"
	ExtDOCX = "docx"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the trimmed text of data interpreted as ext. Unsupported
// extensions yield empty text and no error; malformed input for a supported
// extension is reported as domain.ErrCorruptDocument.
func (e *Extractor) Extract(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ExtPDF:
		text, err = extractPDF(data)
	case ExtDOCX:
		text, err = extractDOCX(data)
	default:
		return "", nil
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrCorruptDocument, fmt.Sprintf("extract %s", ext), err)
	}
	return strings.TrimSpace(text), nil
}

func (e *Extractor) SupportedFormats() []string {
	return []string{ExtPDF, ExtDOCX}
}
