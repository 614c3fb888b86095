// Package export writes frames as spreadsheet files.
package export

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/invoicesheet/internal/table"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSX renders frame as a single-sheet workbook named sheet. The first
// row holds the column labels as integers; data rows follow with no index
// column. Empty strings are left as blank cells.
func XLSX(frame *table.Frame, sheet string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(frame.Columns))
	for j, label := range frame.Columns {
		header[j] = label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range frame.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			if v == "" {
				values[j] = nil
				continue
			}
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}
