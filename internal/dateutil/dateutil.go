// Package dateutil provides week arithmetic and the compact date/time formats used by the calendar grid.
package dateutil

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat = errors.New("date must be in D[/M[/YY]] format")
	ErrInvalidTimeFormat = errors.New("time must be in H[hMM] format")
	ErrInvalidISODate    = errors.New("date must be in YYYY-MM-DD format")
)

// dayNames are the French weekday names, Monday first.
var dayNames = [7]string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

// YearWeek identifies a calendar week.
type YearWeek struct {
	Week int
	Year int
}

// ParseDate parses a date string in YYYY-MM-DD format.
// If the string is empty, returns today's date.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return TruncateToDay(time.Now()), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidISODate
	}
	return t, nil
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	t = TruncateToDay(t)
	monday = t.AddDate(0, 0, -WeekdayIndex(t))
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// WeekdayIndex returns the position of t in a Monday-first week (Monday=0, Sunday=6).
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekNumber returns the ISO week number of t: weeks start on Monday and
// week 1 is the one containing the first Thursday of the year.
func WeekNumber(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// MondayOfWeek returns the Monday of the given ISO week in the local time zone.
func MondayOfWeek(week, year int) time.Time {
	return MondayOfWeekIn(week, year, time.Local)
}

// MondayOfWeekIn returns midnight of the Monday of the given ISO week in loc.
// January 4th always falls in week 1.
func MondayOfWeekIn(week, year int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	firstMonday := jan4.AddDate(0, 0, -WeekdayIndex(jan4))
	return firstMonday.AddDate(0, 0, (week-1)*7)
}

// ForwardWeeks lists n consecutive weeks starting at (week, year).
//
// Years are assumed to have 52 weeks: once the running week number passes 52
// the year is incremented and 52 is subtracted. Years with an ISO week 53
// therefore skip that week.
func ForwardWeeks(week, year, n int) []YearWeek {
	weeks := make([]YearWeek, 0, n)
	for idx := 0; idx < n; idx++ {
		if week+idx > 52 {
			year++
			week -= 52
		}
		weeks = append(weeks, YearWeek{Week: week + idx, Year: year})
	}
	return weeks
}

// ParseCompactDate parses "D", "D/M" or "D/M/YY[YY]".
// Missing fields, and the time of day, are taken from ref.
// Two-digit years (anything below 2000) are read as 2000+YY.
func ParseCompactDate(s string, ref time.Time) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) > 3 {
		return time.Time{}, ErrInvalidDateFormat
	}

	fields := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return time.Time{}, ErrInvalidDateFormat
		}
		fields[i] = v
	}

	year, month, day := ref.Year(), ref.Month(), fields[0]
	if len(fields) > 1 {
		month = time.Month(fields[1])
	}
	if len(fields) > 2 {
		year = fields[2]
		if year < 2000 {
			year += 2000
		}
	}
	if day < 1 || day > 31 || month < time.January || month > time.December {
		return time.Time{}, ErrInvalidDateFormat
	}

	return time.Date(year, month, day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location()), nil
}

// ParseCompactTime parses "H", "Hh" or "HhMM" and returns ref's date at that time.
// Seconds are always zero.
func ParseCompactTime(s string, ref time.Time) (time.Time, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "h")
	if len(parts) > 2 {
		return time.Time{}, ErrInvalidTimeFormat
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, ErrInvalidTimeFormat
	}

	minute := 0
	if len(parts) == 2 && parts[1] != "" {
		minute, err = strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return time.Time{}, ErrInvalidTimeFormat
		}
	}

	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location()), nil
}

// FormatCompactTime renders t as "9h", "9h30" or "9h5". Minutes are not
// padded, ParseCompactTime reads both forms.
func FormatCompactTime(t time.Time) string {
	if t.Minute() == 0 {
		return strconv.Itoa(t.Hour()) + "h"
	}
	return strconv.Itoa(t.Hour()) + "h" + strconv.Itoa(t.Minute())
}

// FormatCompactDate renders t as "3/02".
func FormatCompactDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + "/" + twoDigits(int(t.Month()))
}

func twoDigits(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

// DayIndex returns the Monday-first index of a French weekday name, or -1.
// Matching is case-insensitive and accepts any string containing the name.
func DayIndex(s string) int {
	s = strings.ToUpper(s)
	for i := len(dayNames) - 1; i >= 0; i-- {
		if strings.Contains(s, strings.ToUpper(dayNames[i])) {
			return i
		}
	}
	return -1
}

// DayName returns the French name of the weekday (0=Lundi).
func DayName(idx int) string {
	if idx < 0 || idx > 6 {
		return ""
	}
	return dayNames[idx]
}

// DayAbbrev returns the capitalized three letter abbreviation of the weekday (0="Lun").
func DayAbbrev(idx int) string {
	name := DayName(idx)
	if len(name) < 3 {
		return name
	}
	return name[:3]
}
