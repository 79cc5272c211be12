package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
)

// LoadXLS reads the first sheet of a legacy BIFF .xls workbook.
func LoadXLS(path string) (*Table, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found in %s", filepath.Base(path))
	}

	var header []string
	var rows [][]string
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := sheet.Row(rowID)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol()+1)
		for colID := 0; colID <= row.LastCol(); colID++ {
			cells[colID] = row.Col(colID)
		}
		if header == nil {
			for i := range cells {
				cells[i] = strings.TrimSpace(cells[i])
			}
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty spreadsheet: %s", filepath.Base(path))
	}
	return New(header, rows), nil
}
