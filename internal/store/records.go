package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/masterpath/internal/mastery"
)

func (s *Store) CreateRecord(ctx context.Context, rec *mastery.Record) (*mastery.Record, bool, error) {
	state, err := json.Marshal(rec)
	if err != nil {
		return nil, false, fmt.Errorf("marshal record: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mastery_records (learner_id, subject_id, version, state, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?)
		 ON CONFLICT (learner_id, subject_id) DO NOTHING`,
		rec.LearnerID, rec.SubjectID, string(state), now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert record: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	// Whether or not this call won the insert, the stored row is the
	// authoritative state.
	stored, err := s.GetRecord(ctx, rec.LearnerID, rec.SubjectID)
	if err != nil {
		return nil, false, err
	}
	return stored, inserted == 1, nil
}

func (s *Store) GetRecord(ctx context.Context, learnerID, subjectID string) (*mastery.Record, error) {
	var (
		state   string
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT state, version FROM mastery_records WHERE learner_id = ? AND subject_id = ?`,
		learnerID, subjectID,
	).Scan(&state, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s/%s: %w", learnerID, subjectID, ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}

	var rec mastery.Record
	if err := json.Unmarshal([]byte(state), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record state: %w", err)
	}
	rec.Version = version
	return &rec, nil
}

func (s *Store) SaveRecord(ctx context.Context, rec *mastery.Record) error {
	state, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE mastery_records SET version = version + 1, state = ?, updated_at = ?
		 WHERE learner_id = ? AND subject_id = ? AND version = ?`,
		string(state), now, rec.LearnerID, rec.SubjectID, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM mastery_records WHERE learner_id = ? AND subject_id = ?`,
			rec.LearnerID, rec.SubjectID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check record: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("record %s/%s: %w", rec.LearnerID, rec.SubjectID, ErrRecordNotFound)
		}
		return fmt.Errorf("record %s/%s: %w", rec.LearnerID, rec.SubjectID, ErrVersionConflict)
	}
	rec.Version++
	return nil
}

func (s *Store) ApplySubmission(ctx context.Context, up SubmitUpdate) error {
	rec := up.Record
	state, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	// Optimistic write: the version guard catches a concurrent writer
	// that slipped past the per-key lock.
	res, err := tx.ExecContext(ctx,
		`UPDATE mastery_records SET version = version + 1, state = ?, updated_at = ?
		 WHERE learner_id = ? AND subject_id = ? AND version = ?`,
		string(state), now, rec.LearnerID, rec.SubjectID, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a missing row from a stale version.
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM mastery_records WHERE learner_id = ? AND subject_id = ?`,
			rec.LearnerID, rec.SubjectID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check record: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("record %s/%s: %w", rec.LearnerID, rec.SubjectID, ErrRecordNotFound)
		}
		return fmt.Errorf("record %s/%s: %w", rec.LearnerID, rec.SubjectID, ErrVersionConflict)
	}

	for _, m := range up.Mistakes {
		seq, err := s.seq.next(ctx, tx)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO mistake_events
			 (sequence, learner_id, subject_id, concept_id, step_number, error_type, message, from_expr, to_expr, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			seq, rec.LearnerID, rec.SubjectID, up.Event.ConceptID,
			m.StepNumber, string(m.ErrorType), m.Message, m.FromExpr, m.ToExpr,
			m.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert mistake event: %w", err)
		}
	}

	ev := up.Event
	seq, err := s.seq.next(ctx, tx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO answer_events
		 (sequence, submission_id, learner_id, subject_id, concept_id, question_id,
		  correct, time_taken, user_answer,
		  p_l_before, p_l_after, posterior,
		  student_elo_before, student_elo_after, question_elo_before, question_elo_after,
		  status_before, status_after, observations, mistake_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, ev.SubmissionID, ev.LearnerID, ev.SubjectID, ev.ConceptID, ev.QuestionID,
		boolToInt(ev.Correct), ev.TimeTaken, ev.UserAnswer,
		ev.PLBefore, ev.PLAfter, ev.Posterior,
		ev.StudentEloBefore, ev.StudentEloAfter, ev.QuestionEloBefore, ev.QuestionEloAfter,
		string(ev.StatusBefore), string(ev.StatusAfter), ev.Observations, ev.MistakeCount,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert answer event: %w", err)
	}

	if q := up.Question; q != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE questions SET rating = ?, times_attempted = ?, times_correct = ? WHERE id = ?`,
			q.Rating, q.TimesAttempted, q.TimesCorrect, q.ID,
		)
		if err != nil {
			return fmt.Errorf("update question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	rec.Version++
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, learnerID, subjectID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM mastery_records WHERE learner_id = ? AND subject_id = ?`,
		`DELETE FROM mistake_events WHERE learner_id = ? AND subject_id = ?`,
		`DELETE FROM answer_events WHERE learner_id = ? AND subject_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, learnerID, subjectID); err != nil {
			return fmt.Errorf("delete record state: %w", err)
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
