package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/db"
	"github.com/javiermolinar/agenda/internal/regen"
	"github.com/javiermolinar/agenda/internal/roster"
	"github.com/javiermolinar/agenda/internal/workbook"
)

func TestMain(m *testing.M) {
	DisableColor()
	termWidth = func() int { return 200 }
	os.Exit(m.Run())
}

// testConfig returns a small calendar stored in a temporary directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Calendar.Timezone = "UTC"
	cfg.Calendar.WeeksToDisplay = 1
	cfg.Calendar.Categories = []config.CategoryConfig{
		{Name: "Tourneurs", Slots: []string{"T1", "T2"}},
		{Name: "Modeleurs", Slots: []string{"M1"}},
	}
	cfg.Calendar.Openings = []config.OpeningConfig{{Day: "Lundi", Begin: "9h", End: "12h"}}
	cfg.Calendar.SelfOpenings = nil
	cfg.Grid.Workbook = filepath.Join(dir, "agenda.xlsx")
	cfg.Grid.Capacity = 10
	cfg.Storage.DBPath = filepath.Join(dir, "agenda.db")
	cfg.Storage.RosterPath = filepath.Join(dir, "roster.yaml")
	cfg.Log.Level = "error"
	return cfg
}

// runApp executes one command line on a fresh App and returns its output.
func runApp(t *testing.T, cfg *config.Config, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer

	a := NewApp(cfg)
	a.in = strings.NewReader(input)
	a.out = &out
	a.errOut = io.Discard
	a.root.SetArgs(args)

	err := a.Execute()
	if cerr := a.Close(); cerr != nil {
		t.Errorf("closing app: %v", cerr)
	}
	return out.String(), err
}

func mustRun(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := runApp(t, cfg, "", args...)
	if err != nil {
		t.Fatalf("agenda %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// bookSlot writes name in the first slot of the first opening row.
func bookSlot(t *testing.T, cfg *config.Config, name string) {
	t.Helper()
	ctx := context.Background()

	s, err := regen.NewSchedule(cfg, regen.Options{})
	if err != nil {
		t.Fatal(err)
	}
	region := regen.RegionFor(cfg.Grid, s)

	wb, err := workbook.Open(cfg.Grid)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer func() { _ = wb.Close() }()

	rows, err := wb.ReadRows(ctx, region)
	if err != nil {
		t.Fatal(err)
	}
	rows[1][3] = name
	if err := wb.WriteRows(ctx, region, rows); err != nil {
		t.Fatal(err)
	}
	if err := wb.Flush(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestVersionCmd(t *testing.T) {
	out := mustRun(t, testConfig(t), "version")
	if !strings.HasPrefix(out, "agenda dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestGenerateShowHistory(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "people", "add", "Alice", "Bob")

	out := mustRun(t, cfg, "generate", "--now", "2025-02-01 10:00")
	for _, want := range []string{regen.MsgStarted, regen.MsgDone, "Weeks: 6/2025", "Rows: 2 / 10"} {
		if !strings.Contains(out, want) {
			t.Errorf("generate output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, cfg, "show")
	for _, want := range []string{"Semaine 6 - 2025", "Lun 3/02", "9h-12h", "T1", "M1"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, cfg, "history")
	if !strings.Contains(out, "succeeded") || !strings.Contains(out, "2025-02-03") {
		t.Errorf("history output:\n%s", out)
	}

	f, err := excelize.OpenFile(cfg.Grid.Workbook)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	first, err := f.GetCellValue(cfg.Grid.PeopleSheet, "A4")
	if err != nil {
		t.Fatal(err)
	}
	if first != "Alice" {
		t.Errorf("people sheet A4 = %q, want the first registered name", first)
	}
}

func TestGenerateDryRun(t *testing.T) {
	cfg := testConfig(t)

	out := mustRun(t, cfg, "generate", "--dry-run", "--now", "2025-02-01")
	if !strings.Contains(out, "Semaine 6 - 2025") || !strings.Contains(out, "Dry run") {
		t.Errorf("dry run output:\n%s", out)
	}
	if _, err := os.Stat(cfg.Grid.Workbook); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run must not write the workbook, stat err = %v", err)
	}
}

func TestGenerateCountsPastSlots(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "people", "add", "Alice")
	mustRun(t, cfg, "generate", "--now", "2025-02-01 10:00")
	bookSlot(t, cfg, "Alice")

	out := mustRun(t, cfg, "generate", "--now", "2025-02-08 10:00")
	if !strings.Contains(out, "Counted: 1 slots") {
		t.Errorf("generate output:\n%s", out)
	}

	// A second run on the same day must not count the slot again.
	mustRun(t, cfg, "generate", "--now", "2025-02-08 11:00")

	store, err := db.New(cfg.Storage.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()
	counters, err := store.LoadCounters(context.Background(), []string{"Alice"}, []string{"Tourneurs", "Modeleurs"})
	if err != nil {
		t.Fatal(err)
	}
	if got := counters.Get("Alice").Tally("Tourneurs").PastRegular; got != 1 {
		t.Errorf("Alice Tourneurs = %d, want 1", got)
	}

	out = mustRun(t, cfg, "counters")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Tourneurs (Encadré)") {
		t.Errorf("counters output:\n%s", out)
	}
}

func TestGenerateWorkbookCounters(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Counters = config.CountersWorkbook
	mustRun(t, cfg, "people", "add", "Alice")
	mustRun(t, cfg, "generate", "--now", "2025-02-01 10:00")
	bookSlot(t, cfg, "Alice")
	mustRun(t, cfg, "generate", "--now", "2025-02-08 10:00")

	wb, err := workbook.Open(cfg.Grid)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = wb.Close() }()
	counters, err := wb.Counters().LoadCounters(context.Background(), []string{"Alice"}, []string{"Tourneurs"})
	if err != nil {
		t.Fatal(err)
	}
	if got := counters.Get("Alice").Tally("Tourneurs").PastRegular; got != 1 {
		t.Errorf("Alice Tourneurs = %d, want 1", got)
	}
}

func TestGenerateCapacityExceeded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Grid.Capacity = 1

	_, err := runApp(t, cfg, "", "generate", "--now", "2025-02-01 10:00")
	if !errors.Is(err, regen.ErrCapacityExceeded) {
		t.Errorf("got %v, want %v", err, regen.ErrCapacityExceeded)
	}
}

func TestGenerateInvalidNow(t *testing.T) {
	if _, err := runApp(t, testConfig(t), "", "generate", "--now", "tomorrow"); err == nil {
		t.Error("expected error for invalid --now")
	}
}

func TestParseNow(t *testing.T) {
	a := NewApp(testConfig(t))

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-02-01", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-02-01 10:30", time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)},
		{" 2024-12-31 23:59 ", time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := a.parseNow(tt.input)
			if err != nil {
				t.Fatalf("parseNow(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseNow(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := a.parseNow("01/02/2025"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestPeopleCmds(t *testing.T) {
	cfg := testConfig(t)

	out := mustRun(t, cfg, "people")
	if !strings.Contains(out, "No one registered") {
		t.Errorf("empty roster output %q", out)
	}

	mustRun(t, cfg, "people", "add", "  Alice   Martin ", "Bob")
	out = mustRun(t, cfg, "people", "add", "Bob")
	if !strings.Contains(out, roster.ErrPersonExists.Error()) {
		t.Errorf("adding twice should report the duplicate, got %q", out)
	}

	if _, err := runApp(t, cfg, "", "people", "remove", "Chloé"); !errors.Is(err, roster.ErrPersonNotFound) {
		t.Errorf("got %v, want %v", err, roster.ErrPersonNotFound)
	}
	mustRun(t, cfg, "people", "remove", "Bob")

	out = mustRun(t, cfg, "people")
	if !strings.Contains(out, "Alice Martin") || strings.Contains(out, "Bob") || !strings.Contains(out, "1 people") {
		t.Errorf("people output:\n%s", out)
	}
}

func TestPeopleImport(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "people", "add", "Alice")

	f := excelize.NewFile()
	for i, v := range []string{"Noms", "Alice", "Bob", "Chloé"} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellStr("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "inscrits.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	out := mustRun(t, cfg, "people", "import", path)
	if !strings.Contains(out, "Imported 2 new people") {
		t.Errorf("import output %q", out)
	}

	people, err := roster.NewYAMLRoster(cfg.Storage.RosterPath).ListPeople(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(people, ",") != "Alice,Bob,Chloé" {
		t.Errorf("roster = %v", people)
	}
}

func TestPeoplePublish(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "people", "add", "Alice")
	mustRun(t, cfg, "people", "publish")

	f, err := excelize.OpenFile(cfg.Grid.Workbook)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(cfg.Grid.PeopleSheet)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range rows {
		if len(r) > 0 {
			got = append(got, r[0])
		}
	}
	if strings.Join(got, ",") != "Noms,Libre,Indisponible,Alice" {
		t.Errorf("people column = %v", got)
	}
}

func TestRestoreCmd(t *testing.T) {
	cfg := testConfig(t)

	// The first run backs up an empty calendar.
	mustRun(t, cfg, "generate", "--now", "2025-02-01 10:00")
	if _, err := runApp(t, cfg, "", "restore", "--yes"); err == nil {
		t.Fatal("expected error for an empty backup")
	}

	bookSlot(t, cfg, "Alice")
	mustRun(t, cfg, "generate", "--now", "2025-02-08 10:00")

	out, err := runApp(t, cfg, "n\n", "restore")
	if err != nil || !strings.Contains(out, "Cancelled") {
		t.Fatalf("declined restore: %v %q", err, out)
	}

	out = mustRun(t, cfg, "restore", "--yes")
	if !strings.Contains(out, "Restored 2 rows") {
		t.Errorf("restore output %q", out)
	}
	out = mustRun(t, cfg, "show")
	if !strings.Contains(out, "Semaine 6 - 2025") || !strings.Contains(out, "Alice") {
		t.Errorf("restored calendar:\n%s", out)
	}
}

func TestConfigCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := runApp(t, nil, "", "config", "--config", path, "--no-edit")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "Created "+path) || !strings.Contains(out, "weeks_to_display = 4") {
		t.Errorf("config output:\n%s", out)
	}

	if _, err := runApp(t, nil, "y\n2\n", "config", "--config", path); err != nil {
		t.Fatalf("editing config: %v", err)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Calendar.WeeksToDisplay != 2 {
		t.Errorf("WeeksToDisplay = %d, want 2", cfg.Calendar.WeeksToDisplay)
	}
}
