package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abhisek/masterpath/internal/question"
)

func (s *Store) ImportQuestions(ctx context.Context, qs []question.Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, q := range qs {
		// Descriptive fields refresh on re-import; the rating and attempt
		// counters belong to the engine once a question is known.
		_, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, subject_id, concept_id, text, rating, times_attempted, times_correct)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
				subject_id = excluded.subject_id,
				concept_id = excluded.concept_id,
				text       = excluded.text`,
			q.ID, q.SubjectID, q.ConceptID, q.Text, q.Rating, q.TimesAttempted, q.TimesCorrect,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert question %q: %w", q.ID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*question.Question, error) {
	var q question.Question
	err := s.db.QueryRowContext(ctx,
		`SELECT id, subject_id, concept_id, text, rating, times_attempted, times_correct
		 FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.SubjectID, &q.ConceptID, &q.Text, &q.Rating, &q.TimesAttempted, &q.TimesCorrect)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %q: %w", id, ErrQuestionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query question: %w", err)
	}
	return &q, nil
}

func (s *Store) QuestionsForSubject(ctx context.Context, subjectID string) ([]question.Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, subject_id, concept_id, text, rating, times_attempted, times_correct
		 FROM questions WHERE subject_id = ? ORDER BY id`, subjectID)
}

func (s *Store) QuestionsInRange(ctx context.Context, subjectID string, minRating, maxRating float64) ([]question.Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, subject_id, concept_id, text, rating, times_attempted, times_correct
		 FROM questions WHERE subject_id = ? AND rating BETWEEN ? AND ? ORDER BY id`,
		subjectID, minRating, maxRating)
}

func (s *Store) queryQuestions(ctx context.Context, query string, args ...any) ([]question.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var pool []question.Question
	for rows.Next() {
		var q question.Question
		if err := rows.Scan(&q.ID, &q.SubjectID, &q.ConceptID, &q.Text, &q.Rating, &q.TimesAttempted, &q.TimesCorrect); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		pool = append(pool, q)
	}
	return pool, rows.Err()
}
