package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/javiermolinar/agenda/internal/calendar"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	weekStyle   = cellStyle.Bold(true).Foreground(lipgloss.Color("6"))
	freeStyle   = cellStyle.Faint(true)
	closedStyle = cellStyle.Foreground(lipgloss.Color("1"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// gridHeaders returns the column titles of the calendar grid.
func gridHeaders(slotNames []string) []string {
	return append([]string{"", "Jour", "Horaire"}, slotNames...)
}

// trimGrid drops the blank rows at the end of a grid.
func trimGrid(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isBlankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// fitRow pads or truncates row to n cells.
func fitRow(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

// renderGrid renders calendar rows as a table, coloring week headers and
// the free and unavailable labels.
func renderGrid(s *calendar.Schedule, rows [][]string) string {
	headers := gridHeaders(s.SlotNames())
	fitted := make([][]string, len(rows))
	for i, row := range rows {
		fitted[i] = fitRow(row, len(headers))
	}

	return renderTable(headers, fitted, func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row < 0 || row >= len(fitted) {
			return cellStyle
		}
		v := fitted[row][col]
		switch {
		case col == calendar.ColType && calendar.IsWeekHeader(v):
			return weekStyle
		case col >= calendar.ColSlot && v == s.Free:
			return freeStyle
		case col >= calendar.ColSlot && v == s.Unavailable:
			return closedStyle
		}
		return cellStyle
	})
}

// renderTable renders a bordered table, narrowed to the terminal when it is
// too wide.
func renderTable(headers []string, rows [][]string, style table.StyleFunc) string {
	if style == nil {
		style = func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}
	}

	build := func(width int) *table.Table {
		t := table.New().
			Headers(headers...).
			Border(lipgloss.RoundedBorder()).
			BorderStyle(borderStyle).
			BorderRow(false).
			Rows(rows...).
			StyleFunc(style)
		if width > 0 {
			t = t.Width(width)
		}
		return t
	}

	out := build(0).Render()
	if tw := termWidth(); lipgloss.Width(out) > tw {
		out = build(tw).Render()
	}
	return out
}

// gridTSV joins headers and rows as tab separated values, ready to paste in
// a spreadsheet.
func gridTSV(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, "\t"))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(fitRow(row, len(headers)), "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// copyToClipboard is swapped in tests.
var copyToClipboard = func(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}
