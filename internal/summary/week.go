// Package summary provides week occupancy statistics of the calendar grid.
package summary

import (
	"strings"

	"github.com/javiermolinar/agenda/internal/calendar"
)

// WeekSummary holds the occupancy of one displayed week.
type WeekSummary struct {
	Label string // week header, empty for rows above the first header
	Stats WeekStats
}

// DayStats holds the occupancy of one opening row.
type DayStats struct {
	Day    string
	Hour   string
	Booked int
}

// WeekStats counts the slots of a week.
type WeekStats struct {
	Openings    int
	Slots       int
	Booked      int
	Free        int
	Unavailable int
	PerCategory map[string]int // booked slots per category
	Days        []DayStats
}

// Bookable returns the number of slots that can be booked.
func (s WeekStats) Bookable() int {
	return s.Slots - s.Unavailable
}

// BookedPercent returns the share of bookable slots that are booked.
func (s WeekStats) BookedPercent() int {
	if s.Bookable() <= 0 {
		return 0
	}
	return (s.Booked * 100) / s.Bookable()
}

// BusiestDay returns the opening with the most booked slots, the first one
// on ties. ok is false when nothing is booked.
func (s WeekStats) BusiestDay() (day DayStats, ok bool) {
	for _, d := range s.Days {
		if d.Booked > day.Booked {
			day = d
			ok = true
		}
	}
	return day, ok
}

// SummarizeGrid splits rendered rows at week headers and counts the slots of
// every opening row.
func SummarizeGrid(s *calendar.Schedule, rows [][]string) []WeekSummary {
	var weeks []WeekSummary
	current := -1

	for _, row := range rows {
		typ := strings.TrimSpace(cell(row, calendar.ColType))
		if calendar.IsWeekHeader(typ) {
			weeks = append(weeks, newWeek(typ))
			current = len(weeks) - 1
			continue
		}
		if !isOpening(typ) || strings.TrimSpace(cell(row, calendar.ColDay)) == "" {
			continue
		}
		if current < 0 {
			weeks = append(weeks, newWeek(""))
			current = 0
		}
		countRow(s, &weeks[current].Stats, row)
	}

	return weeks
}

func newWeek(label string) WeekSummary {
	return WeekSummary{Label: label, Stats: WeekStats{PerCategory: make(map[string]int)}}
}

func isOpening(typ string) bool {
	return typ == calendar.Regular.Label() || typ == calendar.SelfService.Label()
}

func countRow(s *calendar.Schedule, st *WeekStats, row []string) {
	day := DayStats{Day: cell(row, calendar.ColDay), Hour: cell(row, calendar.ColHour)}
	st.Openings++

	for i := 0; i < s.SlotCount(); i++ {
		v := calendar.FormatName(cell(row, calendar.ColSlot+i))
		st.Slots++
		switch {
		case v == s.Unavailable:
			st.Unavailable++
		case v == "" || v == s.Free:
			st.Free++
		default:
			st.Booked++
			day.Booked++
			if cat, ok := s.CategoryOf(i); ok {
				st.PerCategory[cat.Name]++
			}
		}
	}

	st.Days = append(st.Days, day)
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
