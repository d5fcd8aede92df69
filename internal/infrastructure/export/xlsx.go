package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

const (
	XLSXFilename    = "categorized_resumes.xlsx"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Results"
)

// WriteXLSX renders records into a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, records []domain.ResultRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "B1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		row := []interface{}{r.Filename, r.Category}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i, err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "B", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func ParseXLSX(r io.Reader) ([]domain.ResultRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse xlsx", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse xlsx", err)
	}
	if len(rows) == 0 || len(rows[0]) < 2 || rows[0][0] != header[0] || rows[0][1] != header[1] {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse xlsx", errors.New("missing header"))
	}

	out := make([]domain.ResultRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := domain.ResultRecord{}
		if len(row) > 0 {
			rec.Filename = row[0]
		}
		if len(row) > 1 {
			rec.Category = row[1]
		}
		out = append(out, rec)
	}
	return out, nil
}
