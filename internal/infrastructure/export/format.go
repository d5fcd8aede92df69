package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, csv or xlsx case-insensitively; empty means json.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse format", fmt.Errorf("unsupported format %q", raw))
	}
}

// Write renders records in a tabular format and returns its content type
// and download filename.
func Write(w io.Writer, format Format, records []domain.ResultRecord) (contentType, filename string, err error) {
	switch format {
	case FormatCSV:
		return CSVContentType, CSVFilename, WriteCSV(w, records)
	case FormatXLSX:
		return XLSXContentType, XLSXFilename, WriteXLSX(w, records)
	default:
		return "", "", domain.WrapError(domain.ErrInvalidInput, "export records", fmt.Errorf("format %q is not tabular", format))
	}
}
