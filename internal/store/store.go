// Package store persists mastery records, append-only event logs and the
// question pool in SQLite. It is the only package that touches the
// database; everything above it works with domain types.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"github.com/abhisek/masterpath/internal/mastery"
	"github.com/abhisek/masterpath/internal/mistake"
	"github.com/abhisek/masterpath/internal/question"
)

// Sentinel errors surfaced to the engine layer.
var (
	ErrRecordNotFound   = errors.New("mastery record not found")
	ErrVersionConflict  = errors.New("mastery record version conflict")
	ErrQuestionNotFound = errors.New("question not found")
)

// RecordRepo manages mastery record persistence.
type RecordRepo interface {
	// CreateRecord inserts rec if no record exists for its key. First
	// writer wins: the returned record is whatever is stored afterwards,
	// and created reports whether this call inserted it.
	CreateRecord(ctx context.Context, rec *mastery.Record) (stored *mastery.Record, created bool, err error)

	// GetRecord loads the record for (learner, subject), or
	// ErrRecordNotFound.
	GetRecord(ctx context.Context, learnerID, subjectID string) (*mastery.Record, error)

	// SaveRecord replaces the stored state, guarded by the record's
	// previous version. Used for non-submission mutations such as the
	// recommendation recency window.
	SaveRecord(ctx context.Context, rec *mastery.Record) error

	// ApplySubmission atomically persists the outcome of one accepted
	// submission: the updated record (guarded by its previous version),
	// appended mistake records, the answer event, and the question-side
	// rating/counter update when a pool question was involved. On any
	// failure the stored state is unchanged.
	ApplySubmission(ctx context.Context, up SubmitUpdate) error

	// DeleteRecord removes the record and all its event history.
	DeleteRecord(ctx context.Context, learnerID, subjectID string) error
}

// EventRepo provides read access to the append-only logs.
type EventRepo interface {
	// ConceptMistakes returns the newest mistakes for a concept, most
	// recent first, capped at limit (0 = no cap).
	ConceptMistakes(ctx context.Context, learnerID, subjectID, conceptID string, limit int) ([]mistake.Record, error)

	// RecentAnswers returns the newest answer events for (learner,
	// subject), most recent first, capped at limit.
	RecentAnswers(ctx context.Context, learnerID, subjectID string, limit int) ([]mastery.AnswerEvent, error)
}

// QuestionRepo manages the question pool.
type QuestionRepo interface {
	// ImportQuestions upserts pool questions. Difficulty ratings and
	// attempt counters of already-known questions are preserved; only the
	// descriptive fields are refreshed.
	ImportQuestions(ctx context.Context, qs []question.Question) (int, error)

	// GetQuestion loads one question by id, or ErrQuestionNotFound.
	GetQuestion(ctx context.Context, id string) (*question.Question, error)

	// QuestionsForSubject returns the full pool for a subject, ordered
	// by id.
	QuestionsForSubject(ctx context.Context, subjectID string) ([]question.Question, error)

	// QuestionsInRange returns the subject's questions whose rating lies
	// in [minRating, maxRating], ordered by id.
	QuestionsInRange(ctx context.Context, subjectID string, minRating, maxRating float64) ([]question.Question, error)
}

// SubmitUpdate carries everything ApplySubmission writes in one
// transaction.
type SubmitUpdate struct {
	Record   *mastery.Record // new state; Record.Version is the version being replaced
	Mistakes []mistake.Record
	Event    mastery.AnswerEvent
	Question *question.Question // nil when no pool question was involved
}

// Store is the SQLite-backed implementation of all repositories.
type Store struct {
	db  *sql.DB
	seq *sequenceCounter
}

var (
	_ RecordRepo   = (*Store)(nil)
	_ EventRepo    = (*Store)(nil)
	_ QuestionRepo = (*Store)(nil)
)

// Open connects to the SQLite database at dsn, applies the recommended
// pragmas and runs migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for single-writer-per-key workloads.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MASTERPATH_DB environment variable
// 2. $XDG_DATA_HOME/masterpath/masterpath.db
// 3. ~/.local/share/masterpath/masterpath.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MASTERPATH_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "masterpath", "masterpath.db")
	return p, EnsureDir(p)
}

// DefaultGraphsDir resolves the knowledge-graph directory next to the
// default database location.
func DefaultGraphsDir() (string, error) {
	dbPath, err := DefaultDBPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(dbPath), "graphs"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
