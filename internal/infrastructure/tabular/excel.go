package tabular

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX returns the cells of the first worksheet. Cell values are raw, so
// numbers keep full precision and dates arrive as Excel serials.
func ReadXLSX(data []byte) ([][]string, error) {
	return ReadXLSXSheet(data, "")
}

// ReadXLSXSheet returns the cells of the named worksheet, or of the first one
// when sheet is empty
func ReadXLSXSheet(data []byte, sheet string) ([][]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	for _, row := range rows {
		for i := range row {
			row[i] = trimSpaces(row[i])
		}
	}
	return rows, nil
}
