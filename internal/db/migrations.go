package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS counters (
			person        TEXT NOT NULL,
			category      TEXT NOT NULL,
			past_regular  INTEGER NOT NULL DEFAULT 0,
			past_self     INTEGER NOT NULL DEFAULT 0,
			updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (person, category)
		);

		CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			started_at   DATETIME NOT NULL,
			finished_at  DATETIME NOT NULL,
			today        DATE NOT NULL,
			weeks        INTEGER NOT NULL,
			row_count    INTEGER NOT NULL,
			carried      INTEGER NOT NULL,
			credited     INTEGER NOT NULL,
			lost         INTEGER NOT NULL,
			status       TEXT NOT NULL CHECK(status IN ('succeeded', 'restored', 'aborted')),
			error        TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
