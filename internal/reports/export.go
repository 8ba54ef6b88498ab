package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var agingHeader = []string{"Party Code", "Party Name", "Current", "1-30", "31-60", "61-90", "91-120", "120+", "Outstanding"}

// WriteAgingXLSX serialises aging rows into an Excel workbook.
func WriteAgingXLSX(w io.Writer, sheet string, rows []AgingRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("reports: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("reports: drop default sheet: %w", err)
		}
	}

	for col, title := range agingHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []any{
			row.PartyCode, row.PartyName,
			row.Current.InexactFloat64(), row.Days30.InexactFloat64(),
			row.Days60.InexactFloat64(), row.Days90.InexactFloat64(),
			row.Days120.InexactFloat64(), row.Over120.InexactFloat64(),
			row.Outstanding.InexactFloat64(),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
