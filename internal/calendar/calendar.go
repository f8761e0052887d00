// Package calendar builds the weekly reservation grid from opening rules and
// carries reservations over from the previously rendered grid.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Domain errors.
var (
	ErrUnknownDay        = errors.New("unknown weekday name")
	ErrEndBeforeBegin    = errors.New("end must be after begin")
	ErrCapacityExceeded  = errors.New("generated rows exceed the grid capacity")
	ErrNoSlotsConfigured = errors.New("no slot configured")
)

// Grid column offsets.
const (
	ColType = 0
	ColDay  = 1
	ColHour = 2
	ColSlot = 3
)

// Structural labels written in the type column.
const (
	SeparatorLabel   = "Zone Libre"
	WeekHeaderPrefix = "Semaine"
)

// Variant distinguishes supervised openings from self-service ones.
type Variant int

const (
	Regular Variant = iota
	SelfService
)

// Label returns the text written in the type column of an opening row.
func (v Variant) Label() string {
	if v == SelfService {
		return "Libre"
	}
	return "Encadré"
}

func (v Variant) String() string {
	if v == SelfService {
		return "self"
	}
	return "regular"
}

// RowKind is the role of a row in the grid.
type RowKind int

const (
	KindBlank RowKind = iota
	KindWeekHeader
	KindOpening
	KindSelfSeparator
)

// GridRow is one generated row of the calendar.
type GridRow struct {
	Kind    RowKind
	Variant Variant
	Label   string // week header or separator text
	Day     string // "Lun 3/02"
	Hour    string // "9h-12h30"
	Slots   []string
	Begin   time.Time
	End     time.Time
	Color   string
}

// Cells flattens the row into width display values.
func (r GridRow) Cells(width int) []string {
	cells := make([]string, width)
	switch r.Kind {
	case KindWeekHeader, KindSelfSeparator:
		if width > ColType {
			cells[ColType] = r.Label
		}
	case KindOpening:
		values := append([]string{r.Variant.Label(), r.Day, r.Hour}, r.Slots...)
		copy(cells, values)
	}
	return cells
}

// Render flattens rows into display values.
func Render(rows []GridRow, width int) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Cells(width)
	}
	return out
}

// WeekHeaderLabel returns "Semaine {week} - {year}".
func WeekHeaderLabel(week, year int) string {
	return fmt.Sprintf("%s %d - %d", WeekHeaderPrefix, week, year)
}

// IsWeekHeader reports whether s is a week header label.
func IsWeekHeader(s string) bool {
	_, _, ok := parseWeekHeader(s)
	return ok
}

// parseWeekHeader reads back a label produced by WeekHeaderLabel.
func parseWeekHeader(s string) (week, year int, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(s), WeekHeaderPrefix)
	if !found {
		return 0, 0, false
	}
	weekPart, yearPart, found := strings.Cut(rest, "-")
	if !found {
		return 0, 0, false
	}
	week, err := strconv.Atoi(strings.TrimSpace(weekPart))
	if err != nil {
		return 0, 0, false
	}
	year, err = strconv.Atoi(strings.TrimSpace(yearPart))
	if err != nil {
		return 0, 0, false
	}
	return week, year, true
}

// FormatName normalizes a person name typed in a slot cell.
func FormatName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseCount reads the leading integer of a counter cell, 0 when there is none.
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}
