package calendar

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/javiermolinar/agenda/internal/dateutil"
)

// Run carries the state of one regeneration through the generator,
// the reconciliation and the counter accumulation.
type Run struct {
	Schedule *Schedule
	Saved    *SavedIndex // previous grid, carried over when Schedule.KeepData is set
	Counters *Counters
	Logger   *slog.Logger

	Carried int // opening rows that received saved values
	Skipped int // openings dropped because of a closure
}

// NewRun prepares a run over the given schedule.
func NewRun(s *Schedule, saved *SavedIndex, counters *Counters, logger *slog.Logger) *Run {
	if logger == nil {
		logger = slog.Default()
	}
	return &Run{Schedule: s, Saved: saved, Counters: counters, Logger: logger}
}

// Weeks returns the weeks displayed by the run, starting with the week of
// Today. The first week carries its ISO year, which differs from the calendar
// year from Dec 29 to 31 and from Jan 1 to 3.
func (r *Run) Weeks() []dateutil.YearWeek {
	year, week := r.Schedule.Today.ISOWeek()
	return dateutil.ForwardWeeks(week, year, r.Schedule.WeeksToDisplay)
}

// Generate lays out every displayed week: a header, the regular openings,
// then a separator and the self-service openings when any is open.
func Generate(r *Run) []GridRow {
	s := r.Schedule
	var rows []GridRow

	for _, yw := range r.Weeks() {
		monday := dateutil.MondayOfWeekIn(yw.Week, yw.Year, s.Location())
		first := len(rows)

		rows = append(rows, GridRow{Kind: KindWeekHeader, Label: WeekHeaderLabel(yw.Week, yw.Year)})

		for _, rule := range s.Openings {
			if row, ok := r.openingRow(rule, monday); ok {
				rows = append(rows, row)
			}
		}

		separator := false
		for _, rule := range s.SelfOpenings {
			row, ok := r.openingRow(rule, monday)
			if !ok {
				continue
			}
			if !separator {
				rows = append(rows, GridRow{Kind: KindSelfSeparator, Variant: SelfService, Label: SeparatorLabel})
				separator = true
			}
			rows = append(rows, row)
		}

		r.Logger.Debug("week generated", "week", yw.Week, "year", yw.Year, "rows", len(rows)-first)
	}

	return rows
}

func (r *Run) openingRow(rule OpeningRule, monday time.Time) (GridRow, bool) {
	s := r.Schedule
	begin, end := rule.InWeek(monday)
	if s.IsClosed(begin, end) {
		r.Skipped++
		r.Logger.Debug("closed", "begin", begin.Format(time.DateTime), "end", end.Format(time.DateTime))
		return GridRow{}, false
	}

	row := GridRow{
		Kind:    KindOpening,
		Variant: rule.Variant,
		Day:     DayLabel(begin),
		Hour:    HourLabel(begin, end),
		Begin:   begin,
		End:     end,
		Color:   rule.Color,
	}

	if r.Saved == nil || !s.KeepData {
		row.Slots = FreeSlots(s.SlotCount(), s.Free)
		return row, true
	}

	slots, entry := r.Saved.List(rule.Variant).Reconcile(begin, end, s.SlotCount(), s.Free)
	if entry != nil {
		r.Carried++
	}
	row.Slots = slots
	return row, true
}

// Pad fills rows with blank rows up to capacity.
func Pad(rows []GridRow, capacity int) ([]GridRow, error) {
	if len(rows) > capacity {
		return nil, fmt.Errorf("%w: %d rows for %d", ErrCapacityExceeded, len(rows), capacity)
	}
	padded := make([]GridRow, capacity)
	copy(padded, rows)
	return padded, nil
}
