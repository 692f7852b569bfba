package mastery

import "time"

// AnswerEvent is the append-only log entry written for every accepted
// submission. It captures the full before/after state so progress views
// and audits never have to re-derive history from the live record.
type AnswerEvent struct {
	Sequence     int64     `json:"sequence"`
	SubmissionID string    `json:"submission_id"`
	LearnerID    string    `json:"learner_id"`
	SubjectID    string    `json:"subject_id"`
	ConceptID    string    `json:"concept_id"`
	QuestionID   string    `json:"question_id,omitempty"`
	Correct      bool      `json:"correct"`
	TimeTaken    int       `json:"time_taken_seconds,omitempty"`
	UserAnswer   string    `json:"user_answer,omitempty"`

	PLBefore  float64 `json:"p_l_before"`
	PLAfter   float64 `json:"p_l_after"`
	Posterior float64 `json:"posterior"`

	StudentEloBefore  float64 `json:"student_elo_before"`
	StudentEloAfter   float64 `json:"student_elo_after"`
	QuestionEloBefore float64 `json:"question_elo_before,omitempty"`
	QuestionEloAfter  float64 `json:"question_elo_after,omitempty"`

	StatusBefore Status `json:"status_before"`
	StatusAfter  Status `json:"status_after"`

	Observations int       `json:"observations"`
	MistakeCount int       `json:"mistake_count"`
	Timestamp    time.Time `json:"timestamp"`
}
