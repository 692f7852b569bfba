package store

import (
	"database/sql"
	"fmt"
)

// migrations run in order inside a single transaction. Statements must be
// idempotent; there is no down path.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS mastery_records (
		learner_id TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		version    INTEGER NOT NULL DEFAULT 1,
		state      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (learner_id, subject_id)
	)`,

	`CREATE TABLE IF NOT EXISTS mistake_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence    INTEGER NOT NULL,
		learner_id  TEXT NOT NULL,
		subject_id  TEXT NOT NULL,
		concept_id  TEXT NOT NULL,
		step_number INTEGER NOT NULL,
		error_type  TEXT NOT NULL,
		message     TEXT,
		from_expr   TEXT,
		to_expr     TEXT,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mistake_events_key
		ON mistake_events (learner_id, subject_id, concept_id, sequence)`,

	`CREATE TABLE IF NOT EXISTS answer_events (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence           INTEGER NOT NULL,
		submission_id      TEXT NOT NULL,
		learner_id         TEXT NOT NULL,
		subject_id         TEXT NOT NULL,
		concept_id         TEXT NOT NULL,
		question_id        TEXT,
		correct            INTEGER NOT NULL,
		time_taken         INTEGER NOT NULL DEFAULT 0,
		user_answer        TEXT,
		p_l_before         REAL NOT NULL,
		p_l_after          REAL NOT NULL,
		posterior          REAL NOT NULL,
		student_elo_before REAL NOT NULL,
		student_elo_after  REAL NOT NULL,
		question_elo_before REAL NOT NULL DEFAULT 0,
		question_elo_after  REAL NOT NULL DEFAULT 0,
		status_before      TEXT NOT NULL,
		status_after       TEXT NOT NULL,
		observations       INTEGER NOT NULL,
		mistake_count      INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_answer_events_key
		ON answer_events (learner_id, subject_id, sequence)`,

	`CREATE TABLE IF NOT EXISTS questions (
		id              TEXT PRIMARY KEY,
		subject_id      TEXT NOT NULL,
		concept_id      TEXT NOT NULL,
		text            TEXT,
		rating          REAL NOT NULL,
		times_attempted INTEGER NOT NULL DEFAULT 0,
		times_correct   INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_subject
		ON questions (subject_id, concept_id)`,
}

func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range migrations {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return tx.Commit()
}
