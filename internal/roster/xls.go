package roster

import (
	"fmt"
	"strings"

	"github.com/extrame/xls"

	"github.com/javiermolinar/agenda/internal/calendar"
)

// XLSCharset is the code page assumed for legacy .xls registration sheets.
const XLSCharset = "utf-8"

// sheetReader is the part of a worksheet the import needs.
type sheetReader interface {
	rows() int
	cell(row, col int) string
}

type xlsSheet struct {
	sheet *xls.WorkSheet
}

func (s xlsSheet) rows() int {
	return int(s.sheet.MaxRow) + 1
}

func (s xlsSheet) cell(row, col int) string {
	r := s.sheet.Row(row)
	if r == nil {
		return ""
	}
	return r.Col(col)
}

// ReadXLS returns the names listed in the first column of the first sheet of
// a legacy registration workbook.
func ReadXLS(path, charset string) ([]string, error) {
	if charset == "" {
		charset = XLSCharset
	}

	wb, err := xls.Open(path, charset)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%s: no sheet", path)
	}

	return namesFromSheet(xlsSheet{sheet: sheet}), nil
}

// namesFromSheet collects the non-empty cells of column 0. A leading title
// cell ("Nom", "Noms") is skipped and duplicates are dropped.
func namesFromSheet(s sheetReader) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < s.rows(); i++ {
		name := calendar.FormatName(s.cell(i, 0))
		if name == "" || seen[name] {
			continue
		}
		if len(names) == 0 && isTitle(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}

func isTitle(s string) bool {
	switch strings.ToLower(s) {
	case "nom", "noms", "name", "names":
		return true
	}
	return false
}
