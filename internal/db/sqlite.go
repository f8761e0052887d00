// Package db provides SQLite storage for counters and the run journal.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/agenda/internal/calendar"
)

// SQLite implements calendar.CounterStore and calendar.Journal using SQLite.
type SQLite struct {
	db  *sqlx.DB
	now func() time.Time
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type counterRow struct {
	Person      string `db:"person"`
	Category    string `db:"category"`
	PastRegular int    `db:"past_regular"`
	PastSelf    int    `db:"past_self"`
	UpdatedAt   string `db:"updated_at"`
}

// LoadCounters returns the stored counters of people. Every person gets a
// zeroed tally for each category; stored rows of people outside the list
// are ignored.
func (s *SQLite) LoadCounters(ctx context.Context, people []string, categories []string) (*calendar.Counters, error) {
	counters := calendar.NewCounters(people)
	for _, p := range counters.People() {
		for _, cat := range categories {
			p.Tally(cat)
		}
	}

	var rows []counterRow
	query := `SELECT person, category, past_regular, past_self, updated_at FROM counters ORDER BY person, category`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("querying counters: %w", err)
	}

	for _, r := range rows {
		p := counters.Get(r.Person)
		if p == nil {
			continue
		}
		t := p.Tally(r.Category)
		t.PastRegular = r.PastRegular
		t.PastSelf = r.PastSelf
	}

	return counters, nil
}

// SaveCounters writes every tally in a single transaction.
func (s *SQLite) SaveCounters(ctx context.Context, counters *calendar.Counters) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO counters (person, category, past_regular, past_self, updated_at)
		VALUES (:person, :category, :past_regular, :past_self, :updated_at)
		ON CONFLICT(person, category) DO UPDATE SET
			past_regular = excluded.past_regular,
			past_self    = excluded.past_self,
			updated_at   = excluded.updated_at
	`

	updatedAt := s.now().Format(time.RFC3339)
	for _, p := range counters.People() {
		for _, cat := range p.Categories() {
			t := p.PerCategory[cat]
			row := counterRow{
				Person:      p.Name,
				Category:    cat,
				PastRegular: t.PastRegular,
				PastSelf:    t.PastSelf,
				UpdatedAt:   updatedAt,
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("saving counters of %q: %w", p.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

type runRow struct {
	ID         string `db:"id"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Today      string `db:"today"`
	Weeks      int    `db:"weeks"`
	Rows       int    `db:"row_count"`
	Carried    int    `db:"carried"`
	Credited   int    `db:"credited"`
	Lost       int    `db:"lost"`
	Status     string `db:"status"`
	Error      string `db:"error"`
}

// RecordRun appends a run to the journal.
func (s *SQLite) RecordRun(ctx context.Context, rec calendar.RunRecord) error {
	query := `
		INSERT INTO runs (
			id, started_at, finished_at, today, weeks, row_count,
			carried, credited, lost, status, error
		) VALUES (
			:id, :started_at, :finished_at, :today, :weeks, :row_count,
			:carried, :credited, :lost, :status, :error
		)
	`

	row := runRow{
		ID:         rec.ID,
		StartedAt:  rec.StartedAt.Format(time.RFC3339),
		FinishedAt: rec.FinishedAt.Format(time.RFC3339),
		Today:      rec.Today.Format("2006-01-02"),
		Weeks:      rec.Weeks,
		Rows:       rec.Rows,
		Carried:    rec.Carried,
		Credited:   rec.Credited,
		Lost:       rec.Lost,
		Status:     rec.Status,
		Error:      rec.Error,
	}
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs first.
func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]calendar.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	query := `
		SELECT id, started_at, finished_at, today, weeks, row_count,
		       carried, credited, lost, status, error
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}

	runs := make([]calendar.RunRecord, 0, len(rows))
	for _, r := range rows {
		rec := calendar.RunRecord{
			ID:       r.ID,
			Weeks:    r.Weeks,
			Rows:     r.Rows,
			Carried:  r.Carried,
			Credited: r.Credited,
			Lost:     r.Lost,
			Status:   r.Status,
			Error:    r.Error,
		}

		var err error
		if rec.StartedAt, err = time.Parse(time.RFC3339, r.StartedAt); err != nil {
			return nil, fmt.Errorf("parsing started at: %w", err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339, r.FinishedAt); err != nil {
			return nil, fmt.Errorf("parsing finished at: %w", err)
		}
		if rec.Today, err = parseDate(r.Today); err != nil {
			return nil, fmt.Errorf("parsing today: %w", err)
		}
		runs = append(runs, rec)
	}

	return runs, nil
}

// parseDate parses a date string, handling both "2006-01-02" and RFC3339 formats.
// SQLite may return DATE columns in either format depending on the driver.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
