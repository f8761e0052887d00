package roster

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// gridSheet adapts rows already read in memory.
type gridSheet [][]string

func (g gridSheet) rows() int { return len(g) }

func (g gridSheet) cell(row, col int) string {
	if row < 0 || row >= len(g) || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// ReadXLSX returns the names listed in the first column of the first sheet of
// an .xlsx registration workbook.
func ReadXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: no sheet", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return namesFromSheet(gridSheet(rows)), nil
}

// ReadFile reads a registration sheet, picking the format from the extension.
func ReadFile(path, charset string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		return ReadXLS(path, charset)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("%s: unsupported file type, expected .xls or .xlsx", path)
	}
}
