package calendar

import (
	"strings"
	"time"

	"github.com/javiermolinar/agenda/internal/dateutil"
)

// Interval is a concrete time range.
type Interval struct {
	Begin time.Time
	End   time.Time
}

// Overlaps reports whether the interval shares time with [begin,end).
// Intervals that only touch do not overlap.
func (i Interval) Overlaps(begin, end time.Time) bool {
	return i.Begin.Before(end) && i.End.After(begin)
}

// SavedEntry is an opening row read back from the previous grid.
type SavedEntry struct {
	Interval
	Variant Variant
	Day     string
	Hour    string
	Slots   []string

	matched  bool
	credited bool
}

// Matched reports whether the entry was carried into the new grid.
func (e *SavedEntry) Matched() bool {
	return e.matched
}

// Names returns the person names held by the entry, placeholders excluded.
func (e *SavedEntry) Names(s *Schedule) []string {
	return slotNames(s, e.Slots)
}

// DroppedNames returns the names held in slot columns past the ones of s,
// left over from a larger slot set.
func (e *SavedEntry) DroppedNames(s *Schedule) []string {
	if len(e.Slots) <= s.SlotCount() {
		return nil
	}
	return slotNames(s, e.Slots[s.SlotCount():])
}

func slotNames(s *Schedule, slots []string) []string {
	var names []string
	for _, v := range slots {
		if name := FormatName(v); !s.IsSentinel(name) {
			names = append(names, name)
		}
	}
	return names
}

// SavedList keeps saved entries in the order they were read.
type SavedList struct {
	entries []*SavedEntry
}

// Add appends an entry.
func (l *SavedList) Add(e *SavedEntry) {
	l.entries = append(l.entries, e)
}

// Entries returns the entries in insertion order.
func (l *SavedList) Entries() []*SavedEntry {
	return l.entries
}

// Len returns the number of entries.
func (l *SavedList) Len() int {
	return len(l.entries)
}

// Match returns the first entry overlapping [begin,end), or nil.
func (l *SavedList) Match(begin, end time.Time) *SavedEntry {
	for _, e := range l.entries {
		if e.Overlaps(begin, end) {
			return e
		}
	}
	return nil
}

// SavedIndex holds the saved entries of the previous grid, split by variant.
type SavedIndex struct {
	Regular SavedList
	Self    SavedList
	Skipped int // rows with a hour label that could not be parsed
}

// List returns the entries of variant v.
func (x *SavedIndex) List(v Variant) *SavedList {
	if v == SelfService {
		return &x.Self
	}
	return &x.Regular
}

// All returns regular entries followed by self-service ones.
func (x *SavedIndex) All() []*SavedEntry {
	all := make([]*SavedEntry, 0, x.Regular.Len()+x.Self.Len())
	all = append(all, x.Regular.entries...)
	return append(all, x.Self.entries...)
}

// Unmatched returns the entries that were not carried into the new grid.
func (x *SavedIndex) Unmatched() []*SavedEntry {
	var out []*SavedEntry
	for _, e := range x.All() {
		if !e.matched {
			out = append(out, e)
		}
	}
	return out
}

// IndexSaved parses a previously rendered grid.
//
// Rows without an hour label are structural. A separator row switches the
// following rows to the self-service list until the next week header. The
// year of each row comes from the week header above it, ref is used before
// any header. Rows whose day or hour label cannot be parsed are skipped.
func IndexSaved(rows [][]string, ref time.Time) *SavedIndex {
	idx := &SavedIndex{}
	isSelf := false
	headerWeek, headerYear := 0, 0

	for _, row := range rows {
		hour := strings.TrimSpace(cell(row, ColHour))
		if hour == "" {
			label := strings.TrimSpace(cell(row, ColType))
			if label == SeparatorLabel || strings.TrimSpace(cell(row, ColDay)) == SeparatorLabel {
				isSelf = true
			}
			if week, year, ok := parseWeekHeader(label); ok {
				headerWeek, headerYear = week, year
				isSelf = false
			}
			continue
		}

		day, ok := parseDayLabel(cell(row, ColDay), ref, headerWeek, headerYear)
		if !ok {
			idx.Skipped++
			continue
		}
		interval, ok := parseHourLabel(hour, day)
		if !ok {
			idx.Skipped++
			continue
		}

		entry := &SavedEntry{
			Interval: interval,
			Variant:  Regular,
			Day:      cell(row, ColDay),
			Hour:     hour,
		}
		if len(row) > ColSlot {
			entry.Slots = append([]string(nil), row[ColSlot:]...)
		}
		if isSelf {
			entry.Variant = SelfService
		}
		idx.List(entry.Variant).Add(entry)
	}

	return idx
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

// parseDayLabel reads the trailing "D/MM[/YY]" token of a day label.
func parseDayLabel(label string, ref time.Time, headerWeek, headerYear int) (time.Time, bool) {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	token := fields[len(fields)-1]
	if !strings.Contains(token, "/") {
		return time.Time{}, false
	}

	base := dateutil.TruncateToDay(ref)
	if headerYear != 0 {
		base = time.Date(headerYear, time.January, 1, 0, 0, 0, 0, ref.Location())
	}
	day, err := dateutil.ParseCompactDate(token, base)
	if err != nil {
		return time.Time{}, false
	}

	// A week numbered with the next (or previous) year can start (or end) in
	// a month of the neighbouring year.
	if headerYear != 0 && strings.Count(token, "/") < 2 {
		switch {
		case headerWeek == 1 && day.Month() == time.December:
			day = day.AddDate(-1, 0, 0)
		case headerWeek >= 52 && day.Month() == time.January:
			day = day.AddDate(1, 0, 0)
		}
	}
	return day, true
}

// parseHourLabel reads "9h-12h30" on the given day.
func parseHourLabel(label string, day time.Time) (Interval, bool) {
	beginPart, endPart, found := strings.Cut(label, "-")
	if !found || strings.Contains(endPart, "-") {
		return Interval{}, false
	}
	begin, err := dateutil.ParseCompactTime(beginPart, day)
	if err != nil {
		return Interval{}, false
	}
	end, err := dateutil.ParseCompactTime(endPart, day)
	if err != nil || !end.After(begin) {
		return Interval{}, false
	}
	return Interval{Begin: begin, End: end}, true
}
