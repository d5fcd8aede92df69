package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

const (
	CSVFilename    = "categorized_resumes.csv"
	CSVContentType = "text/csv"
)

var header = []string{"Filename", "Category"}

// WriteCSV renders records as UTF-8 CSV with a Filename,Category header.
func WriteCSV(w io.Writer, records []domain.ResultRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Filename, r.Category}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func ParseCSV(r io.Reader) ([]domain.ResultRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse csv", errors.New("missing header"))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse csv", err)
	}
	if first[0] != header[0] || first[1] != header[1] {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse csv", fmt.Errorf("unexpected header %v", first))
	}

	out := make([]domain.ResultRecord, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse csv", err)
		}
		out = append(out, domain.ResultRecord{Filename: row[0], Category: row[1]})
	}
}
