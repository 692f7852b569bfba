package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/masterpath/internal/mastery"
	"github.com/abhisek/masterpath/internal/mistake"
)

func (s *Store) ConceptMistakes(ctx context.Context, learnerID, subjectID, conceptID string, limit int) ([]mistake.Record, error) {
	query := `SELECT step_number, error_type, message, from_expr, to_expr, created_at
		FROM mistake_events
		WHERE learner_id = ? AND subject_id = ? AND concept_id = ?
		ORDER BY sequence DESC`
	args := []any{learnerID, subjectID, conceptID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	defer rows.Close()

	var result []mistake.Record
	for rows.Next() {
		var (
			m         mistake.Record
			errType   string
			createdAt string
		)
		if err := rows.Scan(&m.StepNumber, &errType, &m.Message, &m.FromExpr, &m.ToExpr, &createdAt); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		m.ErrorType = mistake.ErrorType(errType)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			m.Timestamp = t
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *Store) RecentAnswers(ctx context.Context, learnerID, subjectID string, limit int) ([]mastery.AnswerEvent, error) {
	query := `SELECT sequence, submission_id, concept_id, question_id,
			correct, time_taken, user_answer,
			p_l_before, p_l_after, posterior,
			student_elo_before, student_elo_after, question_elo_before, question_elo_after,
			status_before, status_after, observations, mistake_count, created_at
		FROM answer_events
		WHERE learner_id = ? AND subject_id = ?
		ORDER BY sequence DESC`
	args := []any{learnerID, subjectID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var result []mastery.AnswerEvent
	for rows.Next() {
		var (
			ev                        mastery.AnswerEvent
			correct                   int
			statusBefore, statusAfter string
			createdAt                 string
		)
		err := rows.Scan(&ev.Sequence, &ev.SubmissionID, &ev.ConceptID, &ev.QuestionID,
			&correct, &ev.TimeTaken, &ev.UserAnswer,
			&ev.PLBefore, &ev.PLAfter, &ev.Posterior,
			&ev.StudentEloBefore, &ev.StudentEloAfter, &ev.QuestionEloBefore, &ev.QuestionEloAfter,
			&statusBefore, &statusAfter, &ev.Observations, &ev.MistakeCount, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		ev.LearnerID = learnerID
		ev.SubjectID = subjectID
		ev.Correct = correct == 1
		ev.StatusBefore = mastery.Status(statusBefore)
		ev.StatusAfter = mastery.Status(statusAfter)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			ev.Timestamp = t
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}
