package calendar

import (
	"testing"
	"time"

	"github.com/javiermolinar/agenda/internal/config"
)

// newTestSchedule builds a schedule with three slots (two "Tourneurs", one
// "Modeleurs"), a Monday 9h-12h opening and one displayed week.
func newTestSchedule(t *testing.T, now time.Time, mutate func(c *config.CalendarConfig)) *Schedule {
	t.Helper()
	cfg := config.Default().Calendar
	cfg.WeeksToDisplay = 1
	cfg.WeekEndDay = 5
	cfg.Categories = []config.CategoryConfig{
		{Name: "Tourneurs", Slots: []string{"T1", "T2"}},
		{Name: "Modeleurs", Slots: []string{"M1"}},
	}
	cfg.Openings = []config.OpeningConfig{{Day: "Lundi", Begin: "9h", End: "12h"}}
	cfg.SelfOpenings = nil
	cfg.Closures = nil
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := NewSchedule(cfg, now)
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	return s
}

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func assertCells(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d cells %q, want %d %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %q, want %q (row %q)", i, got[i], want[i], got)
		}
	}
}

func assertGrid(t *testing.T, got, want [][]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d\ngot:  %q\nwant: %q", len(got), len(want), got, want)
	}
	for i := range want {
		assertCells(t, got[i], want[i])
	}
}
