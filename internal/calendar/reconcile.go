package calendar

import "time"

// FreeSlots returns n free placeholders.
func FreeSlots(n int, free string) []string {
	slots := make([]string, n)
	for i := range slots {
		slots[i] = free
	}
	return slots
}

// Reconcile returns the slot values of a new opening [begin,end): the values
// of the first saved entry overlapping it, with free placeholders for empty
// or missing positions. Without a match every slot is free.
func (l *SavedList) Reconcile(begin, end time.Time, slotCount int, free string) ([]string, *SavedEntry) {
	entry := l.Match(begin, end)
	if entry == nil {
		return FreeSlots(slotCount, free), nil
	}
	entry.matched = true
	return CarrySlots(entry.Slots, slotCount, free), entry
}

// CarrySlots copies saved values into slotCount positions.
func CarrySlots(saved []string, slotCount int, free string) []string {
	slots := make([]string, slotCount)
	for i := range slots {
		var v string
		if i < len(saved) {
			v = FormatName(saved[i])
		}
		if v == "" {
			v = free
		}
		slots[i] = v
	}
	return slots
}

// Lost is a saved entry whose reservations the new grid no longer shows.
type Lost struct {
	*SavedEntry
	Dropped []string // names that disappear
}

// LostReservations returns the reservations the new grid drops: every name
// of an entry still to come whose opening disappeared, and the names a
// carried entry held in slot columns that no longer exist.
func (x *SavedIndex) LostReservations(s *Schedule, today time.Time) []Lost {
	var lost []Lost
	for _, e := range x.All() {
		var names []string
		switch {
		case e.matched:
			names = e.DroppedNames(s)
		case e.End.After(today):
			names = e.Names(s)
		}
		if len(names) > 0 {
			lost = append(lost, Lost{SavedEntry: e, Dropped: names})
		}
	}
	return lost
}
