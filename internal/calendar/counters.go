package calendar

import (
	"sort"
	"time"
)

// Tally counts the past slots of one person in one category.
type Tally struct {
	PastRegular int
	PastSelf    int
}

// Add increments the count of variant v by n.
func (t *Tally) Add(v Variant, n int) {
	if v == SelfService {
		t.PastSelf += n
		return
	}
	t.PastRegular += n
}

// PersonCounters holds the past-day counters of one person.
type PersonCounters struct {
	Name        string
	PerCategory map[string]*Tally
}

// Tally returns the counters of a category, creating them on first use.
func (p *PersonCounters) Tally(category string) *Tally {
	t, ok := p.PerCategory[category]
	if !ok {
		t = &Tally{}
		p.PerCategory[category] = t
	}
	return t
}

// Categories returns the categories with counters, sorted by name.
func (p *PersonCounters) Categories() []string {
	names := make([]string, 0, len(p.PerCategory))
	for name := range p.PerCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counters holds the counters of every known person, in roster order.
type Counters struct {
	people []*PersonCounters
	byName map[string]*PersonCounters
}

// NewCounters creates zeroed counters for the given roster.
// Duplicate names share one entry.
func NewCounters(names []string) *Counters {
	c := &Counters{byName: make(map[string]*PersonCounters, len(names))}
	for _, n := range names {
		n = FormatName(n)
		if n == "" {
			continue
		}
		if _, ok := c.byName[n]; ok {
			continue
		}
		p := &PersonCounters{Name: n, PerCategory: make(map[string]*Tally)}
		c.people = append(c.people, p)
		c.byName[n] = p
	}
	return c
}

// Get returns the counters of a person, nil if the name is not in the roster.
func (c *Counters) Get(name string) *PersonCounters {
	return c.byName[FormatName(name)]
}

// People returns every person in roster order.
func (c *Counters) People() []*PersonCounters {
	return c.people
}

// Set overwrites a counter, ignoring unknown names.
func (c *Counters) Set(name, category string, v Variant, n int) {
	p := c.Get(name)
	if p == nil {
		return
	}
	t := p.Tally(category)
	if v == SelfService {
		t.PastSelf = n
	} else {
		t.PastRegular = n
	}
}

// Clone returns a deep copy.
func (c *Counters) Clone() *Counters {
	out := &Counters{byName: make(map[string]*PersonCounters, len(c.people))}
	for _, p := range c.people {
		cp := &PersonCounters{Name: p.Name, PerCategory: make(map[string]*Tally, len(p.PerCategory))}
		for cat, t := range p.PerCategory {
			tc := *t
			cp.PerCategory[cat] = &tc
		}
		out.people = append(out.people, cp)
		out.byName[cp.Name] = cp
	}
	return out
}

// Credit summarizes one counter accumulation pass.
type Credit struct {
	Entries int // saved entries credited
	Slots   int // counters incremented
	Unknown int // names not found in the roster
}

// CreditPast adds one past day per occupied slot of every saved entry that
// ended at or before today and was not carried into the new grid. Entries
// still displayed are credited by the run that drops them, so a slot is
// never counted twice. An entry is credited at most once.
func (r *Run) CreditPast(today time.Time) Credit {
	var credit Credit
	if r.Saved == nil || r.Counters == nil {
		return credit
	}
	s := r.Schedule

	for _, e := range r.Saved.All() {
		if e.matched || e.credited || e.End.After(today) {
			continue
		}
		e.credited = true
		credit.Entries++

		for i, v := range e.Slots {
			name := FormatName(v)
			if s.IsSentinel(name) {
				continue
			}
			cat, ok := s.CategoryOf(i)
			if !ok {
				continue
			}
			p := r.Counters.Get(name)
			if p == nil {
				credit.Unknown++
				continue
			}
			p.Tally(cat.Name).Add(e.Variant, 1)
			credit.Slots++
		}
	}

	return credit
}
