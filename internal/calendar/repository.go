package calendar

import (
	"context"
	"time"
)

// Region is the rectangular part of a sheet holding the calendar.
type Region struct {
	Sheet     string
	HeaderRow int // row of the slot names, 1-based
	FirstRow  int // first calendar row, 1-based
	Capacity  int // number of rows the calendar must fill exactly
	Width     int // number of columns written
}

// GridStore reads and writes the rendered calendar.
type GridStore interface {
	// ReadRows returns the display values of the region, one slice per row.
	ReadRows(ctx context.Context, r Region) ([][]string, error)

	// WriteRows writes rows at the top of the region.
	WriteRows(ctx context.Context, r Region, rows [][]string) error

	// ClearRegion empties the region.
	ClearRegion(ctx context.Context, r Region) error

	// WriteHeader writes the slot names above the region.
	WriteHeader(ctx context.Context, r Region, slotNames []string) error

	// SaveBackup copies rows to the backup sheet.
	SaveBackup(ctx context.Context, rows [][]string) error

	// SetMarker shows a status message to the operators, empty clears it.
	SetMarker(ctx context.Context, text string) error

	// Flush persists pending changes.
	Flush(ctx context.Context) error
}

// PeoplePublisher publishes the list of names offered in slot cells.
type PeoplePublisher interface {
	PublishPeople(ctx context.Context, values []string) error
}

// RosterStore lists the registered people.
type RosterStore interface {
	ListPeople(ctx context.Context) ([]string, error)
}

// CounterStore persists past-day counters.
type CounterStore interface {
	// LoadCounters returns the current counters of the given people.
	LoadCounters(ctx context.Context, people []string, categories []string) (*Counters, error)

	// SaveCounters replaces the stored counters.
	SaveCounters(ctx context.Context, counters *Counters) error
}

// Notifier receives operator notifications.
type Notifier interface {
	Info(msg string)
	Log(msg string)
	Err(msg string, err error)
}

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunRestored  = "restored"
	RunAborted   = "aborted"
)

// RunRecord is the journal entry of one regeneration.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Today      time.Time
	Weeks      int
	Rows       int
	Carried    int
	Credited   int
	Lost       int
	Status     string
	Error      string
}

// Journal records regeneration runs.
type Journal interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
