package calendar

import (
	"fmt"
	"time"

	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/dateutil"
)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "H", "Hh" or "HhMM".
func ParseClock(s string) (Clock, error) {
	t, err := dateutil.ParseCompactTime(s, time.Time{})
	if err != nil {
		return 0, err
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// On returns the clock time on the day of d.
func (c Clock) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), int(c)/60, int(c)%60, 0, 0, d.Location())
}

// OpeningRule is a recurring weekly opening.
type OpeningRule struct {
	Variant Variant
	DayName string
	Weekday int // 0 = Monday
	Begin   Clock
	End     Clock
	Color   string
}

// NewOpeningRule parses one row of an opening table.
func NewOpeningRule(v Variant, oc config.OpeningConfig) (OpeningRule, error) {
	weekday := dateutil.DayIndex(oc.Day)
	if weekday < 0 {
		return OpeningRule{}, fmt.Errorf("%w: %q", ErrUnknownDay, oc.Day)
	}

	begin, err := ParseClock(oc.Begin)
	if err != nil {
		return OpeningRule{}, fmt.Errorf("begin %q: %w", oc.Begin, err)
	}
	end, err := ParseClock(oc.End)
	if err != nil {
		return OpeningRule{}, fmt.Errorf("end %q: %w", oc.End, err)
	}
	if end <= begin {
		return OpeningRule{}, fmt.Errorf("%s %s-%s: %w", oc.Day, oc.Begin, oc.End, ErrEndBeforeBegin)
	}

	return OpeningRule{
		Variant: v,
		DayName: oc.Day,
		Weekday: weekday,
		Begin:   begin,
		End:     end,
		Color:   oc.Color,
	}, nil
}

// InWeek materializes the rule in the week starting on monday.
func (r OpeningRule) InWeek(monday time.Time) (begin, end time.Time) {
	day := monday.AddDate(0, 0, r.Weekday)
	return r.Begin.On(day), r.End.On(day)
}

// DayLabel returns "Lun 3/02" for an opening starting at begin.
func DayLabel(begin time.Time) string {
	return dateutil.DayAbbrev(dateutil.WeekdayIndex(begin)) + " " + dateutil.FormatCompactDate(begin)
}

// HourLabel returns "9h-12h30".
func HourLabel(begin, end time.Time) string {
	return dateutil.FormatCompactTime(begin) + "-" + dateutil.FormatCompactTime(end)
}

// ClosedInterval is a period during which the workshop is closed.
type ClosedInterval struct {
	Begin time.Time
	End   time.Time
}

// NewClosedInterval parses one row of the closed periods table.
// Missing date fields are taken from now. Without an end day the closure
// lasts until the next midnight; with an end day but no end hour it lasts
// until the midnight following that day.
func NewClosedInterval(cc config.ClosureConfig, now time.Time) (ClosedInterval, error) {
	begin, err := dateutil.ParseCompactDate(cc.BeginDay, now)
	if err != nil {
		return ClosedInterval{}, fmt.Errorf("begin day %q: %w", cc.BeginDay, err)
	}
	begin = dateutil.TruncateToDay(begin)
	if cc.BeginHour != "" {
		begin, err = dateutil.ParseCompactTime(cc.BeginHour, begin)
		if err != nil {
			return ClosedInterval{}, fmt.Errorf("begin hour %q: %w", cc.BeginHour, err)
		}
	}

	var end time.Time
	switch {
	case cc.EndDay == "":
		end = dateutil.TruncateToDay(begin).AddDate(0, 0, 1)
	default:
		end, err = dateutil.ParseCompactDate(cc.EndDay, now)
		if err != nil {
			return ClosedInterval{}, fmt.Errorf("end day %q: %w", cc.EndDay, err)
		}
		if cc.EndHour == "" {
			end = dateutil.TruncateToDay(end).AddDate(0, 0, 1)
		} else {
			end, err = dateutil.ParseCompactTime(cc.EndHour, end)
			if err != nil {
				return ClosedInterval{}, fmt.Errorf("end hour %q: %w", cc.EndHour, err)
			}
		}
	}

	if !end.After(begin) {
		return ClosedInterval{}, fmt.Errorf("closure %s: %w", cc.BeginDay, ErrEndBeforeBegin)
	}
	return ClosedInterval{Begin: begin, End: end}, nil
}

// Touches reports whether [begin,end] meets the closure, boundaries included.
func (c ClosedInterval) Touches(begin, end time.Time) bool {
	return !end.Before(c.Begin) && !begin.After(c.End)
}
