package calendar

import "testing"

func pastGrid() [][]string {
	return [][]string{
		{"Semaine 5 - 2025", "", "", "", "", ""},
		{"Encadré", "Lun 27/01", "9h-12h", "Alice", "Zoé", "Bob"},
		{"Zone Libre", "", "", "", "", ""},
		{"Libre", "Sam 1/02", "10h-13h", "Alice", "Libre", "Indisponible"},
		{"Semaine 6 - 2025", "", "", "", "", ""},
		{"Encadré", "Lun 3/02", "9h-12h", "Bob", "", ""},
	}
}

func TestCreditPast(t *testing.T) {
	s := newTestSchedule(t, date(2025, 2, 1, 10, 0), nil)
	saved := IndexSaved(pastGrid(), s.Today)
	counters := NewCounters([]string{"Alice", "Bob"})

	run := NewRun(s, saved, counters, nil)
	Generate(run)

	credit := run.CreditPast(s.Today)
	if credit.Entries != 2 || credit.Slots != 3 || credit.Unknown != 1 {
		t.Errorf("credit = %+v", credit)
	}

	alice := counters.Get("Alice").Tally("Tourneurs")
	if alice.PastRegular != 1 || alice.PastSelf != 1 {
		t.Errorf("Alice = %+v", alice)
	}
	if bob := counters.Get("Bob").Tally("Modeleurs"); bob.PastRegular != 1 || bob.PastSelf != 0 {
		t.Errorf("Bob Modeleurs = %+v", bob)
	}
	if bob := counters.Get("Bob").Tally("Tourneurs"); bob.PastRegular != 0 {
		t.Errorf("Bob Tourneurs = %+v, the carried row must not be credited", bob)
	}

	again := run.CreditPast(s.Today)
	if again != (Credit{}) {
		t.Errorf("second pass credited %+v", again)
	}
	if alice.PastRegular != 1 {
		t.Errorf("counters changed on second pass: %+v", alice)
	}
}

func TestCreditPast_MatchedEntriesNotCredited(t *testing.T) {
	s := newTestSchedule(t, date(2025, 2, 1, 10, 0), nil)
	saved := IndexSaved(pastGrid(), s.Today)
	counters := NewCounters([]string{"Bob"})

	run := NewRun(s, saved, counters, nil)
	Generate(run)

	// The week 6 row ended well before this reference but is still displayed.
	run.CreditPast(date(2025, 2, 10, 0, 0))
	if got := counters.Get("Bob").Tally("Tourneurs").PastRegular; got != 0 {
		t.Errorf("Bob Tourneurs = %d, want 0", got)
	}
}

func TestCreditPast_Monotonic(t *testing.T) {
	s := newTestSchedule(t, date(2025, 2, 1, 10, 0), nil)
	counters := NewCounters([]string{"Alice", "Bob"})
	counters.Set("Alice", "Tourneurs", Regular, 7)

	run := NewRun(s, IndexSaved(pastGrid(), s.Today), counters, nil)
	Generate(run)
	run.CreditPast(s.Today)

	if got := counters.Get("Alice").Tally("Tourneurs").PastRegular; got != 8 {
		t.Errorf("Alice = %d, want 8", got)
	}
}

func TestCreditPast_WithoutSavedData(t *testing.T) {
	s := newTestSchedule(t, date(2025, 2, 1, 10, 0), nil)
	run := NewRun(s, nil, NewCounters([]string{"Alice"}), nil)
	if got := run.CreditPast(s.Today); got != (Credit{}) {
		t.Errorf("credit = %+v", got)
	}
}

func TestCounters(t *testing.T) {
	c := NewCounters([]string{"Alice", " Alice ", "", "Bob"})
	if len(c.People()) != 2 {
		t.Fatalf("People = %d, want 2", len(c.People()))
	}
	if c.Get("Zoé") != nil {
		t.Error("unknown name should return nil")
	}

	c.Set("Zoé", "Tourneurs", Regular, 3)
	c.Set("Bob", "Tourneurs", SelfService, 4)
	c.Set("Bob", "Autres", Regular, 1)

	clone := c.Clone()
	clone.Get("Bob").Tally("Tourneurs").Add(SelfService, 1)

	if got := c.Get("Bob").Tally("Tourneurs").PastSelf; got != 4 {
		t.Errorf("original modified through clone: %d", got)
	}
	if got := clone.Get("Bob").Tally("Tourneurs").PastSelf; got != 5 {
		t.Errorf("clone = %d, want 5", got)
	}
	assertCells(t, c.Get("Bob").Categories(), []string{"Autres", "Tourneurs"})
}
