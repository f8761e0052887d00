package integration

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/javiermolinar/agenda/internal/calendar"
	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/db"
	"github.com/javiermolinar/agenda/internal/regen"
	"github.com/javiermolinar/agenda/internal/roster"
	"github.com/javiermolinar/agenda/internal/workbook"
)

// newConfig returns a two-week calendar stored in a temporary directory.
func newConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Calendar.Timezone = "UTC"
	cfg.Calendar.WeeksToDisplay = 2
	cfg.Calendar.Categories = []config.CategoryConfig{
		{Name: "Tourneurs", Slots: []string{"T1", "T2"}},
		{Name: "Modeleurs", Slots: []string{"M1"}},
	}
	cfg.Calendar.Openings = []config.OpeningConfig{
		{Day: "Lundi", Begin: "9h", End: "12h"},
		{Day: "Jeudi", Begin: "14h", End: "17h"},
	}
	cfg.Calendar.SelfOpenings = []config.OpeningConfig{
		{Day: "Samedi", Begin: "10h", End: "13h"},
	}
	cfg.Grid.Workbook = filepath.Join(dir, "agenda.xlsx")
	cfg.Grid.Capacity = 20
	cfg.Storage.DBPath = filepath.Join(dir, "agenda.db")
	cfg.Storage.RosterPath = filepath.Join(dir, "roster.yaml")
	return cfg
}

// mustParseTime parses "2006-01-02 15:04" in UTC or fails the test.
func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", s, err)
	}
	return ts
}

// regenerate runs one regeneration on freshly opened stores, the way the
// command line does.
func regenerate(t *testing.T, cfg *config.Config, now string) *regen.Result {
	t.Helper()
	ctx := context.Background()

	wb, err := workbook.Open(cfg.Grid)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer func() { _ = wb.Close() }()

	store, err := db.New(cfg.Storage.DBPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = store.Close() }()

	res, err := regen.Run(ctx, cfg, regen.Deps{
		Grid:     wb,
		People:   wb,
		Roster:   roster.NewYAMLRoster(cfg.Storage.RosterPath),
		Counters: store,
		Journal:  store,
	}, regen.Options{Now: mustParseTime(t, now)})
	if err != nil {
		t.Fatalf("regeneration at %s failed: %v", now, err)
	}
	return res
}

// book writes name in slot column slot of the row showing day.
func book(t *testing.T, cfg *config.Config, day string, slot int, name string) {
	t.Helper()
	ctx := context.Background()

	s, err := regen.NewSchedule(cfg, regen.Options{})
	if err != nil {
		t.Fatal(err)
	}
	region := regen.RegionFor(cfg.Grid, s)

	wb, err := workbook.Open(cfg.Grid)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer func() { _ = wb.Close() }()

	rows, err := wb.ReadRows(ctx, region)
	if err != nil {
		t.Fatal(err)
	}
	row := findRow(t, rows, day)
	row[calendar.ColSlot+slot] = name
	if err := wb.WriteRows(ctx, region, rows); err != nil {
		t.Fatal(err)
	}
	if err := wb.Flush(ctx); err != nil {
		t.Fatal(err)
	}
}

func findRow(t *testing.T, rows [][]string, day string) []string {
	t.Helper()
	for _, r := range rows {
		if len(r) > calendar.ColDay && r[calendar.ColDay] == day {
			return r
		}
	}
	t.Fatalf("no row for %q", day)
	return nil
}

func hasRow(rows [][]string, day string) bool {
	return slices.ContainsFunc(rows, func(r []string) bool {
		return len(r) > calendar.ColDay && r[calendar.ColDay] == day
	})
}

func loadCounters(t *testing.T, cfg *config.Config, people ...string) *calendar.Counters {
	t.Helper()
	store, err := db.New(cfg.Storage.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	c, err := store.LoadCounters(context.Background(), people, []string{"Tourneurs", "Modeleurs"})
	if err != nil {
		t.Fatalf("failed to load counters: %v", err)
	}
	return c
}

func TestWeekToWeek(t *testing.T) {
	cfg := newConfig(t)
	ctx := context.Background()

	r := roster.NewYAMLRoster(cfg.Storage.RosterPath)
	for _, name := range []string{"Alice", "Bob", "Chloé"} {
		if err := r.Add(ctx, name); err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
	}

	first := regenerate(t, cfg, "2025-02-01 10:00")
	if len(first.Rows) != 10 {
		t.Fatalf("first run: %d rows, want 10", len(first.Rows))
	}
	if first.Grid[0][0] != "Semaine 6 - 2025" || first.Grid[5][0] != "Semaine 7 - 2025" {
		t.Errorf("unexpected week headers %q %q", first.Grid[0][0], first.Grid[5][0])
	}

	book(t, cfg, "Jeu 6/02", 0, "Alice")
	book(t, cfg, "Sam 8/02", 2, "Bob")
	book(t, cfg, "Lun 10/02", 1, "Chloé")

	// One week later: week 6 went by, week 7 is kept, week 8 appears.
	second := regenerate(t, cfg, "2025-02-08 10:00")
	if second.Grid[0][0] != "Semaine 7 - 2025" || second.Grid[5][0] != "Semaine 8 - 2025" {
		t.Errorf("unexpected week headers %q %q", second.Grid[0][0], second.Grid[5][0])
	}
	if hasRow(second.Grid, "Jeu 6/02") {
		t.Error("past week should be gone")
	}
	if got := findRow(t, second.Grid, "Lun 10/02")[calendar.ColSlot+1]; got != "Chloé" {
		t.Errorf("Chloé should stay in her slot, got %q", got)
	}
	if second.Carried != 3 {
		t.Errorf("Carried = %d, want 3", second.Carried)
	}
	if second.Credit.Slots != 2 || second.Credit.Unknown != 0 {
		t.Errorf("credit = %+v", second.Credit)
	}

	c := loadCounters(t, cfg, "Alice", "Bob", "Chloé")
	if got := c.Get("Alice").Tally("Tourneurs"); got.PastRegular != 1 || got.PastSelf != 0 {
		t.Errorf("Alice Tourneurs = %+v", got)
	}
	if got := c.Get("Bob").Tally("Modeleurs"); got.PastSelf != 1 || got.PastRegular != 0 {
		t.Errorf("Bob Modeleurs = %+v", got)
	}
	if got := c.Get("Chloé").Tally("Tourneurs"); got.PastRegular != 0 {
		t.Errorf("Chloé has not attended yet: %+v", got)
	}

	// Running again the same day changes nothing.
	third := regenerate(t, cfg, "2025-02-08 11:00")
	if !slices.EqualFunc(third.Grid, second.Grid, slices.Equal[[]string]) {
		t.Error("second regeneration of the same day changed the grid")
	}
	if third.Credit != (calendar.Credit{}) {
		t.Errorf("nothing should be counted twice, got %+v", third.Credit)
	}
	if got := loadCounters(t, cfg, "Alice").Get("Alice").Tally("Tourneurs").PastRegular; got != 1 {
		t.Errorf("Alice Tourneurs = %d after rerun, want 1", got)
	}

	store, err := db.New(cfg.Storage.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()
	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("journal has %d runs, want 3", len(runs))
	}
	for _, run := range runs {
		if run.Status != calendar.RunSucceeded {
			t.Errorf("run %s status = %s", run.ID, run.Status)
		}
	}
}

func TestClosureDropsReservation(t *testing.T) {
	cfg := newConfig(t)
	if err := roster.NewYAMLRoster(cfg.Storage.RosterPath).Add(context.Background(), "Alice"); err != nil {
		t.Fatal(err)
	}

	regenerate(t, cfg, "2025-02-01 10:00")
	book(t, cfg, "Jeu 13/02", 0, "Alice")

	cfg.Calendar.Closures = []config.ClosureConfig{{BeginDay: "13/2/25"}}
	res := regenerate(t, cfg, "2025-02-01 11:00")

	if hasRow(res.Grid, "Jeu 13/02") {
		t.Error("closed day should not be displayed")
	}
	if res.Closed != 1 {
		t.Errorf("Closed = %d, want 1", res.Closed)
	}
	if len(res.Lost) != 1 || res.Lost[0].Day != "Jeu 13/02" || !slices.Contains(res.Lost[0].Slots, "Alice") {
		t.Fatalf("lost = %+v", res.Lost)
	}
	if got := loadCounters(t, cfg, "Alice").Get("Alice").Tally("Tourneurs").PastRegular; got != 0 {
		t.Errorf("a dropped future slot must not be counted, got %d", got)
	}
}

func TestBackupHoldsPreviousCalendar(t *testing.T) {
	cfg := newConfig(t)
	ctx := context.Background()

	regenerate(t, cfg, "2025-02-01 10:00")
	book(t, cfg, "Lun 3/02", 0, "Alice")
	regenerate(t, cfg, "2025-02-08 10:00")

	wb, err := workbook.Open(cfg.Grid)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = wb.Close() }()
	backup, err := wb.ReadBackup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(backup) == 0 || backup[0][0] != "Semaine 6 - 2025" {
		t.Fatalf("backup should hold the week 6 calendar, got %v", backup)
	}
	if got := findRow(t, backup, "Lun 3/02")[calendar.ColSlot]; got != "Alice" {
		t.Errorf("backup slot = %q, want Alice", got)
	}
}

func TestRemovedSlotColumn(t *testing.T) {
	cfg := newConfig(t)

	regenerate(t, cfg, "2025-02-01 10:00")
	book(t, cfg, "Jeu 13/02", 2, "Alice")
	book(t, cfg, "Lun 10/02", 0, "Bob")

	// Modeleurs and its M1 column go away.
	cfg.Calendar.Categories = cfg.Calendar.Categories[:1]
	res := regenerate(t, cfg, "2025-02-01 11:00")

	if len(res.Lost) != 1 || res.Lost[0].Day != "Jeu 13/02" || !slices.Equal(res.Lost[0].Dropped, []string{"Alice"}) {
		t.Fatalf("lost = %+v", res.Lost)
	}
	if got := findRow(t, res.Grid, "Lun 10/02")[calendar.ColSlot]; got != "Bob" {
		t.Errorf("Lun 10/02 T1 = %q, want Bob", got)
	}

	f, err := excelize.OpenFile(cfg.Grid.Workbook)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	sheet, err := f.GetRows(cfg.Grid.Sheet)
	if err != nil {
		t.Fatal(err)
	}

	header := sheet[cfg.Grid.HeaderRow-1]
	if len(header) < 5 || header[3] != "T1" || header[4] != "T2" {
		t.Errorf("header row = %q", header)
	}
	if len(header) > 5 && header[5] != "" {
		t.Errorf("header row = %q, the M1 column must be cleared", header)
	}
	for i, row := range sheet[cfg.Grid.FirstRow-1:] {
		if len(row) > calendar.ColSlot+2 && row[calendar.ColSlot+2] != "" {
			t.Errorf("calendar row %d keeps %q in the removed column", i, row[calendar.ColSlot+2])
		}
	}
}

func TestYearEndKeepsWeekOne(t *testing.T) {
	cfg := newConfig(t)

	first := regenerate(t, cfg, "2025-12-20 10:00")
	if !hasRow(first.Grid, "Lun 29/12") {
		t.Fatalf("first calendar should show Lun 29/12, got %q", first.Grid)
	}
	book(t, cfg, "Lun 29/12", 0, "Alice")

	// Today is 2025-12-29, in week 1 of 2026.
	res := regenerate(t, cfg, "2025-12-27 10:00")

	if got := res.Grid[0][0]; got != "Semaine 1 - 2026" {
		t.Errorf("first header = %q, want Semaine 1 - 2026", got)
	}
	if len(res.Weeks) != 2 || res.Weeks[1].Week != 2 || res.Weeks[1].Year != 2026 {
		t.Errorf("weeks = %+v", res.Weeks)
	}
	if got := findRow(t, res.Grid, "Lun 29/12")[calendar.ColSlot]; got != "Alice" {
		t.Errorf("Lun 29/12 T1 = %q, want Alice", got)
	}
	if len(res.Lost) != 0 {
		t.Errorf("lost = %+v", res.Lost)
	}
}
