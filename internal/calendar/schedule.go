package calendar

import (
	"fmt"
	"time"

	"github.com/javiermolinar/agenda/internal/config"
)

// Category is a named group of slot columns.
type Category struct {
	Name  string
	Slots []string
}

// Schedule is the configuration of one regeneration: opening rules, closures,
// slot layout and display parameters.
type Schedule struct {
	Openings       []OpeningRule
	SelfOpenings   []OpeningRule
	Closures       []ClosedInterval
	Categories     []Category
	Free           string
	Unavailable    string
	WeeksToDisplay int
	KeepData       bool
	UpdatePastDays bool

	// Now is the wall clock at the start of the run, Today the reference
	// used to lay out weeks and decide which slots are past.
	Now   time.Time
	Today time.Time
}

// NewSchedule parses the calendar configuration. now fixes the time zone and
// the reference date for every relative value.
func NewSchedule(cfg config.CalendarConfig, now time.Time) (*Schedule, error) {
	s := &Schedule{
		Free:           cfg.FreeLabel,
		Unavailable:    cfg.UnavailableLabel,
		WeeksToDisplay: cfg.WeeksToDisplay,
		KeepData:       cfg.KeepData,
		UpdatePastDays: cfg.UpdatePastDays,
		Now:            now,
		Today:          ShiftToday(now, cfg.WeekEndDay),
	}

	for _, cat := range cfg.Categories {
		s.Categories = append(s.Categories, Category{Name: cat.Name, Slots: append([]string(nil), cat.Slots...)})
	}
	if len(s.SlotNames()) == 0 {
		return nil, ErrNoSlotsConfigured
	}

	for i, oc := range cfg.Openings {
		rule, err := NewOpeningRule(Regular, oc)
		if err != nil {
			return nil, fmt.Errorf("opening %d: %w", i+1, err)
		}
		s.Openings = append(s.Openings, rule)
	}
	for i, oc := range cfg.SelfOpenings {
		rule, err := NewOpeningRule(SelfService, oc)
		if err != nil {
			return nil, fmt.Errorf("self opening %d: %w", i+1, err)
		}
		s.SelfOpenings = append(s.SelfOpenings, rule)
	}
	for i, cc := range cfg.Closures {
		closed, err := NewClosedInterval(cc, now)
		if err != nil {
			return nil, fmt.Errorf("closure %d: %w", i+1, err)
		}
		s.Closures = append(s.Closures, closed)
	}

	return s, nil
}

// ShiftToday moves now forward by 7-weekEndDay days, or by 2 days when that is zero.
func ShiftToday(now time.Time, weekEndDay int) time.Time {
	skip := 7 - weekEndDay
	if skip == 0 {
		skip = 2
	}
	return now.AddDate(0, 0, skip)
}

// Location returns the time zone of the run.
func (s *Schedule) Location() *time.Location {
	return s.Today.Location()
}

// IsClosed reports whether [begin,end] touches any closure. Touching
// boundaries count as closed.
func (s *Schedule) IsClosed(begin, end time.Time) bool {
	for _, c := range s.Closures {
		if c.Touches(begin, end) {
			return true
		}
	}
	return false
}

// SlotNames returns every slot column name, category by category.
func (s *Schedule) SlotNames() []string {
	var names []string
	for _, cat := range s.Categories {
		names = append(names, cat.Slots...)
	}
	return names
}

// SlotCount returns the number of slot columns.
func (s *Schedule) SlotCount() int {
	n := 0
	for _, cat := range s.Categories {
		n += len(cat.Slots)
	}
	return n
}

// Width returns the number of grid columns.
func (s *Schedule) Width() int {
	return ColSlot + s.SlotCount()
}

// CategoryOf returns the category owning the slot at position idx.
func (s *Schedule) CategoryOf(idx int) (Category, bool) {
	if idx < 0 {
		return Category{}, false
	}
	for _, cat := range s.Categories {
		if idx < len(cat.Slots) {
			return cat, true
		}
		idx -= len(cat.Slots)
	}
	return Category{}, false
}

// CategoryNames returns the category names in configuration order.
func (s *Schedule) CategoryNames() []string {
	names := make([]string, len(s.Categories))
	for i, cat := range s.Categories {
		names[i] = cat.Name
	}
	return names
}

// IsSentinel reports whether v is one of the placeholder values of a slot.
func (s *Schedule) IsSentinel(v string) bool {
	return v == "" || v == s.Free || v == s.Unavailable
}

// PeopleColumn returns the values of the public people list: a title, the two
// placeholders, then every name.
func (s *Schedule) PeopleColumn(names []string) []string {
	values := []string{"Noms", s.Free, s.Unavailable}
	for _, n := range names {
		values = append(values, FormatName(n))
	}
	return values
}
