package engine

import (
	"context"
	"sort"
	"time"

	"github.com/abhisek/masterpath/internal/mastery"
)

// ConceptState is the per-concept slice of the mastery view. Locked
// concepts appear with zeroed mastery fields so clients always see the
// whole graph.
type ConceptState struct {
	ConceptID     string         `json:"concept_id"`
	Name          string         `json:"name"`
	Status        mastery.Status `json:"status"`
	PL            float64        `json:"p_l"`
	Observations  int            `json:"observations"`
	CorrectCount  int            `json:"correct_count"`
	Accuracy      float64        `json:"accuracy"`
	Prerequisites []string       `json:"prerequisites,omitempty"`
	Depth         int            `json:"depth"`
}

// MasteryView is the full per-concept state for one learner in one
// subject, in graph order (depth, then id).
type MasteryView struct {
	LearnerID     string         `json:"learner_id"`
	SubjectID     string         `json:"subject_id"`
	EloRating     float64        `json:"elo_rating"`
	Concepts      []ConceptState `json:"concepts"`
	TotalConcepts int            `json:"total_concepts"`
	UnlockedCount int            `json:"unlocked_count"`
	MasteredCount int            `json:"mastered_count"`
}

// MasteryState builds the full mastery view for (learner, subject).
func (s *Service) MasteryState(ctx context.Context, learnerID, subjectID string) (*MasteryView, error) {
	g, err := s.graphs.Load(subjectID)
	if err != nil {
		return nil, err
	}
	rec, err := s.repos.GetRecord(ctx, learnerID, subjectID)
	if err != nil {
		return nil, err
	}

	view := &MasteryView{
		LearnerID:     learnerID,
		SubjectID:     subjectID,
		EloRating:     rec.EloRating,
		TotalConcepts: g.Len(),
		UnlockedCount: len(rec.Unlocked),
		MasteredCount: len(rec.Mastered),
	}
	for _, c := range g.Concepts() {
		cs := ConceptState{
			ConceptID:     c.ID,
			Name:          c.Name,
			Status:        rec.StatusOf(c.ID),
			Prerequisites: c.Prerequisites,
			Depth:         c.Depth,
		}
		if cm, ok := rec.Concepts[c.ID]; ok {
			cs.PL = cm.PL
			cs.Observations = cm.Observations
			cs.CorrectCount = cm.CorrectCount
			cs.Accuracy = cm.Accuracy()
		}
		view.Concepts = append(view.Concepts, cs)
	}
	return view, nil
}

// WeakConcept is an unlocked concept whose mastery sits below the
// learning threshold.
type WeakConcept struct {
	ConceptID string  `json:"concept_id"`
	Name      string  `json:"name"`
	PL        float64 `json:"p_l"`
}

// Summary is the aggregate progress view for one learner in one subject.
type Summary struct {
	LearnerID              string                `json:"learner_id"`
	SubjectID              string                `json:"subject_id"`
	EloRating              float64               `json:"elo_rating"`
	TotalConcepts          int                   `json:"total_concepts"`
	UnlockedCount          int                   `json:"unlocked_count"`
	MasteredCount          int                   `json:"mastered_count"`
	AttemptedCount         int                   `json:"attempted_count"`
	MasteryPercent         float64               `json:"mastery_percent"`
	AverageMastery         float64               `json:"average_mastery"`
	TotalQuestionsAnswered int                   `json:"total_questions_answered"`
	CurrentFocus           string                `json:"current_focus,omitempty"`
	WeakConcepts           []WeakConcept         `json:"weak_concepts,omitempty"`
	RecentActivity         []mastery.AnswerEvent `json:"recent_activity,omitempty"`
	CreatedAt              time.Time             `json:"created_at"`
	LastUpdated            time.Time             `json:"last_updated"`
}

// recentActivityLimit caps the event tail included in the summary.
const recentActivityLimit = 10

// ProgressSummary builds the aggregate progress view, including the weak
// concepts (unlocked, below the learning threshold, weakest first) and
// the most recent answer events.
func (s *Service) ProgressSummary(ctx context.Context, learnerID, subjectID string) (*Summary, error) {
	g, err := s.graphs.Load(subjectID)
	if err != nil {
		return nil, err
	}
	rec, err := s.repos.GetRecord(ctx, learnerID, subjectID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repos.RecentAnswers(ctx, learnerID, subjectID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		LearnerID:              learnerID,
		SubjectID:              subjectID,
		EloRating:              rec.EloRating,
		TotalConcepts:          g.Len(),
		UnlockedCount:          len(rec.Unlocked),
		MasteredCount:          len(rec.Mastered),
		AverageMastery:         rec.AverageMastery(),
		TotalQuestionsAnswered: rec.TotalQuestionsAnswered,
		CurrentFocus:           rec.CurrentFocus,
		RecentActivity:         recent,
	}
	for _, cm := range rec.Concepts {
		if cm.Observations > 0 {
			sum.AttemptedCount++
		}
	}
	if g.Len() > 0 {
		sum.MasteryPercent = float64(len(rec.Mastered)) / float64(g.Len()) * 100
	}

	for _, id := range rec.UnlockedNotMastered() {
		cm := rec.Concepts[id]
		if cm == nil || !s.tuning.Thresholds.Weak(cm.PL) {
			continue
		}
		name := id
		if c, ok := g.Get(id); ok {
			name = c.Name
		}
		sum.WeakConcepts = append(sum.WeakConcepts, WeakConcept{ConceptID: id, Name: name, PL: cm.PL})
	}
	sort.Slice(sum.WeakConcepts, func(i, j int) bool {
		if sum.WeakConcepts[i].PL != sum.WeakConcepts[j].PL {
			return sum.WeakConcepts[i].PL < sum.WeakConcepts[j].PL
		}
		return sum.WeakConcepts[i].ConceptID < sum.WeakConcepts[j].ConceptID
	})

	sum.CreatedAt = rec.CreatedAt
	sum.LastUpdated = rec.LastUpdated
	return sum, nil
}
