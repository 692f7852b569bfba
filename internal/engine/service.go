// Package engine orchestrates the mastery pipeline: it owns the
// per-learner records, applies the knowledge-tracing and rating updates
// on every submission, propagates unlocks through the knowledge graph
// and serves recommendations. All state mutation goes through this
// package; handlers and commands stay thin.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/masterpath/internal/bkt"
	"github.com/abhisek/masterpath/internal/elo"
	"github.com/abhisek/masterpath/internal/kgraph"
	"github.com/abhisek/masterpath/internal/mastery"
	"github.com/abhisek/masterpath/internal/mistake"
	"github.com/abhisek/masterpath/internal/question"
	"github.com/abhisek/masterpath/internal/recommend"
	"github.com/abhisek/masterpath/internal/store"
)

// Repos groups the storage interfaces the service depends on.
type Repos interface {
	store.RecordRepo
	store.EventRepo
	store.QuestionRepo
}

// Service is the mastery engine. Safe for concurrent use.
type Service struct {
	repos  Repos
	graphs *kgraph.Registry
	tuning Tuning
	log    *zap.Logger

	locks *keyedLocks

	// now is swappable for tests.
	now func() time.Time
}

// NewService wires the engine together. A nil logger falls back to the
// no-op logger.
func NewService(repos Repos, graphs *kgraph.Registry, tuning Tuning, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repos:  repos,
		graphs: graphs,
		tuning: tuning,
		log:    log,
		locks:  newKeyedLocks(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func recordKey(learnerID, subjectID string) string {
	return learnerID + "\x00" + subjectID
}

// Initialize creates the mastery record for (learner, subject) with the
// graph's root concepts unlocked. Idempotent: if a record already exists
// it is returned unchanged and created is false.
func (s *Service) Initialize(ctx context.Context, learnerID, subjectID string) (*mastery.Record, bool, error) {
	g, err := s.graphs.Load(subjectID)
	if err != nil {
		return nil, false, err
	}

	unlock := s.locks.acquire(recordKey(learnerID, subjectID))
	defer unlock()

	rec := mastery.NewRecord(learnerID, g, s.tuning.InitialElo, s.now())
	stored, created, err := s.repos.CreateRecord(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("initialized mastery record",
			zap.String("learner", learnerID),
			zap.String("subject", subjectID),
			zap.Strings("roots", g.Roots()))
	}
	return stored, created, nil
}

// SubmitInput is one answer submission.
type SubmitInput struct {
	LearnerID  string
	SubjectID  string
	ConceptID  string
	QuestionID string // optional; must exist in the pool when set
	Correct    bool
	TimeTaken  int    // seconds, optional
	UserAnswer string // optional
	Mistakes   []mistake.Record
}

// SubmitResult reports the state transition caused by one submission.
type SubmitResult struct {
	SubmissionID string  `json:"submission_id"`
	ConceptID    string  `json:"concept_id"`
	Correct      bool    `json:"correct"`
	PLBefore     float64 `json:"p_l_before"`
	PLAfter      float64 `json:"p_l_after"`
	Posterior    float64 `json:"posterior"`
	Degenerate   bool    `json:"degenerate,omitempty"`

	StatusBefore mastery.Status `json:"status_before"`
	StatusAfter  mastery.Status `json:"status_after"`
	Mastered     bool           `json:"mastered"`

	EloBefore         float64 `json:"elo_before"`
	EloAfter          float64 `json:"elo_after"`
	QuestionEloBefore float64 `json:"question_elo_before,omitempty"`
	QuestionEloAfter  float64 `json:"question_elo_after,omitempty"`

	NewlyUnlocked []string `json:"newly_unlocked,omitempty"`
	Feedback      string   `json:"feedback"`

	TotalQuestionsAnswered int `json:"total_questions_answered"`
}

// SubmitAnswer applies one observed answer: the knowledge-tracing update
// on the concept, the rating updates, mastery promotion with unlock
// propagation, and a single atomic persistence of the whole outcome.
//
// The record must exist (ErrRecordNotFound otherwise) and the concept
// must be unlocked (ErrConceptNotUnlocked otherwise). Rejected
// submissions leave no trace.
func (s *Service) SubmitAnswer(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	g, err := s.graphs.Load(in.SubjectID)
	if err != nil {
		return nil, err
	}
	c, ok := g.Get(in.ConceptID)
	if !ok {
		return nil, fmt.Errorf("concept %q: %w", in.ConceptID, ErrConceptNotFound)
	}

	unlockKey := s.locks.acquire(recordKey(in.LearnerID, in.SubjectID))
	defer unlockKey()

	rec, err := s.repos.GetRecord(ctx, in.LearnerID, in.SubjectID)
	if err != nil {
		return nil, err
	}
	if !rec.IsUnlocked(c.ID) {
		return nil, fmt.Errorf("concept %q: %w", c.ID, ErrConceptNotUnlocked)
	}

	var q *question.Question
	if in.QuestionID != "" {
		q, err = s.repos.GetQuestion(ctx, in.QuestionID)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	cm := rec.Concepts[c.ID]
	statusBefore := rec.StatusOf(c.ID)

	res := bkt.Update(cm.PL, cm.Params, in.Correct)
	if res.Degenerate {
		s.log.Warn("degenerate knowledge-tracing parameters, evidence step skipped",
			zap.String("learner", in.LearnerID),
			zap.String("concept", c.ID),
			zap.Float64("prior", res.Prior))
	}
	cm.PL = res.Updated
	cm.Observations++
	if in.Correct {
		cm.CorrectCount++
	}

	out := &SubmitResult{
		SubmissionID: uuid.NewString(),
		ConceptID:    c.ID,
		Correct:      in.Correct,
		PLBefore:     res.Prior,
		PLAfter:      res.Updated,
		Posterior:    res.Posterior,
		Degenerate:   res.Degenerate,
		StatusBefore: statusBefore,
		EloBefore:    rec.EloRating,
	}

	// Rating updates only happen against a known pool question; ad-hoc
	// submissions carry no opponent rating.
	if q != nil {
		out.QuestionEloBefore = q.Rating
		rec.EloRating = elo.Update(rec.EloRating, q.Rating, in.Correct, s.tuning.EloK)
		q.Rating = elo.UpdateQuestion(out.EloBefore, q.Rating, in.Correct, s.tuning.QuestionK)
		q.TimesAttempted++
		if in.Correct {
			q.TimesCorrect++
		}
		out.QuestionEloAfter = q.Rating
	}
	out.EloAfter = rec.EloRating

	if !rec.Mastered[c.ID] && s.tuning.Thresholds.Mastered(cm.PL, cm.Observations) {
		rec.MarkMastered(c.ID, now)
		out.Mastered = true
		out.NewlyUnlocked = mastery.Propagate(g, rec, c.ID, now)
	}
	out.StatusAfter = rec.StatusOf(c.ID)

	rec.TotalQuestionsAnswered++
	rec.LastUpdated = now
	rec.CurrentFocus = nextFocus(rec, c.ID)
	if in.QuestionID != "" {
		rec.RememberQuestion(c.ID, in.QuestionID, s.tuning.RecencyWindow)
	}
	out.TotalQuestionsAnswered = rec.TotalQuestionsAnswered
	out.Feedback = feedback(c.Name, out, g)

	ev := mastery.AnswerEvent{
		SubmissionID:      out.SubmissionID,
		LearnerID:         in.LearnerID,
		SubjectID:         in.SubjectID,
		ConceptID:         c.ID,
		QuestionID:        in.QuestionID,
		Correct:           in.Correct,
		TimeTaken:         in.TimeTaken,
		UserAnswer:        in.UserAnswer,
		PLBefore:          out.PLBefore,
		PLAfter:           out.PLAfter,
		Posterior:         out.Posterior,
		StudentEloBefore:  out.EloBefore,
		StudentEloAfter:   out.EloAfter,
		QuestionEloBefore: out.QuestionEloBefore,
		QuestionEloAfter:  out.QuestionEloAfter,
		StatusBefore:      out.StatusBefore,
		StatusAfter:       out.StatusAfter,
		Observations:      cm.Observations,
		MistakeCount:      len(in.Mistakes),
		Timestamp:         now,
	}

	mistakes := make([]mistake.Record, len(in.Mistakes))
	for i, m := range in.Mistakes {
		if !m.ErrorType.Valid() {
			m.ErrorType = mistake.TypeUnknown
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		mistakes[i] = m
	}

	up := store.SubmitUpdate{Record: rec, Mistakes: mistakes, Event: ev, Question: q}
	if err := s.repos.ApplySubmission(ctx, up); err != nil {
		return nil, err
	}

	s.log.Debug("submission applied",
		zap.String("learner", in.LearnerID),
		zap.String("subject", in.SubjectID),
		zap.String("concept", c.ID),
		zap.Bool("correct", in.Correct),
		zap.Float64("p_l", cm.PL),
		zap.Bool("mastered", out.Mastered),
		zap.Strings("unlocked", out.NewlyUnlocked))
	return out, nil
}

// nextFocus is the weakest unlocked-but-unmastered concept, ties broken
// by smallest id. When everything unlocked is mastered the focus stays on
// the concept just practiced.
func nextFocus(rec *mastery.Record, fallback string) string {
	candidates := rec.UnlockedNotMastered()
	if len(candidates) == 0 {
		return fallback
	}
	best := candidates[0]
	bestPL := rec.Concepts[best].PL
	for _, id := range candidates[1:] {
		if cm := rec.Concepts[id]; cm.PL < bestPL {
			best, bestPL = id, cm.PL
		}
	}
	return best
}

// Recommend picks the learner's next concept and question, and remembers
// a served question in the record's recency window. Candidate questions
// come from the difficulty band around the learner's rating; when the
// band holds nothing for the target concept the whole subject pool is
// consulted instead.
func (s *Service) Recommend(ctx context.Context, learnerID, subjectID string) (*recommend.Recommendation, error) {
	g, err := s.graphs.Load(subjectID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(recordKey(learnerID, subjectID))
	defer unlock()

	rec, err := s.repos.GetRecord(ctx, learnerID, subjectID)
	if err != nil {
		return nil, err
	}
	pool, err := s.candidatePool(ctx, subjectID, rec.EloRating)
	if err != nil {
		return nil, err
	}

	r := recommend.Next(rec, g, pool)
	if r.Outcome == recommend.OutcomeNoQuestion && s.tuning.EloTolerance > 0 {
		full, err := s.repos.QuestionsForSubject(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		r = recommend.Next(rec, g, full)
	}
	if r.Question != nil {
		rec.RememberQuestion(r.ConceptID, r.Question.ID, s.tuning.RecencyWindow)
		if err := s.repos.SaveRecord(ctx, rec); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// candidatePool fetches the questions rated within the tolerance band
// around the learner's rating. A zero tolerance disables difficulty
// matching and returns the whole subject pool.
func (s *Service) candidatePool(ctx context.Context, subjectID string, rating float64) ([]question.Question, error) {
	if s.tuning.EloTolerance <= 0 {
		return s.repos.QuestionsForSubject(ctx, subjectID)
	}
	lo, hi := elo.MatchRange(rating, s.tuning.EloTolerance)
	return s.repos.QuestionsInRange(ctx, subjectID, lo, hi)
}

// Reset deletes the learner's record and event history for a subject.
// Missing records are not an error; a following Initialize yields a state
// indistinguishable from a first-time Initialize.
func (s *Service) Reset(ctx context.Context, learnerID, subjectID string) error {
	unlock := s.locks.acquire(recordKey(learnerID, subjectID))
	defer unlock()

	if err := s.repos.DeleteRecord(ctx, learnerID, subjectID); err != nil {
		return err
	}
	s.log.Info("mastery record reset",
		zap.String("learner", learnerID),
		zap.String("subject", subjectID))
	return nil
}

// ConceptMistakes returns the newest recorded mistakes for one concept,
// most recent first.
func (s *Service) ConceptMistakes(ctx context.Context, learnerID, subjectID, conceptID string, limit int) ([]mistake.Record, error) {
	g, err := s.graphs.Load(subjectID)
	if err != nil {
		return nil, err
	}
	if _, ok := g.Get(conceptID); !ok {
		return nil, fmt.Errorf("concept %q: %w", conceptID, ErrConceptNotFound)
	}
	if _, err := s.repos.GetRecord(ctx, learnerID, subjectID); err != nil {
		return nil, err
	}
	return s.repos.ConceptMistakes(ctx, learnerID, subjectID, conceptID, limit)
}
