// Package mastery defines the per-(learner, subject) mastery record: the
// aggregate the engine mutates on every answer submission. A record owns
// one ConceptMastery entry per concept that has ever been unlocked;
// locked concepts are implicit by absence.
package mastery

import (
	"sort"
	"time"

	"github.com/abhisek/masterpath/internal/bkt"
	"github.com/abhisek/masterpath/internal/kgraph"
)

// Status is a concept's position in the unlock lifecycle. It only ever
// advances: locked → unlocked → mastered.
type Status string

const (
	StatusLocked   Status = "locked"
	StatusUnlocked Status = "unlocked"
	StatusMastered Status = "mastered"
)

// ConceptMastery tracks a learner's state on a single concept.
type ConceptMastery struct {
	ConceptID    string     `json:"concept_id"`
	PL           float64    `json:"p_l"`
	Params       bkt.Params `json:"params"`
	Observations int        `json:"observations"`
	CorrectCount int        `json:"correct_count"`
	Status       Status     `json:"status"`
	UnlockedAt   *time.Time `json:"unlocked_at,omitempty"`
	MasteredAt   *time.Time `json:"mastered_at,omitempty"`
}

// Accuracy returns the observed fraction of correct answers.
func (cm *ConceptMastery) Accuracy() float64 {
	if cm.Observations == 0 {
		return 0
	}
	return float64(cm.CorrectCount) / float64(cm.Observations)
}

// Record is the aggregate root for one learner in one subject. It is
// owned exclusively by the engine service: created by Initialize, mutated
// only through SubmitAnswer, deleted only by Reset.
type Record struct {
	LearnerID string  `json:"learner_id"`
	SubjectID string  `json:"subject_id"`
	EloRating float64 `json:"elo_rating"`

	Concepts map[string]*ConceptMastery `json:"concepts"`
	Unlocked map[string]bool            `json:"unlocked"`
	Mastered map[string]bool            `json:"mastered"`

	TotalQuestionsAnswered int    `json:"total_questions_answered"`
	CurrentFocus           string `json:"current_focus,omitempty"`

	// RecentQuestions keeps the last few served question ids per concept,
	// the recency window the recommender excludes before matching by
	// difficulty.
	RecentQuestions map[string][]string `json:"recent_questions,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	// Version is the optimistic-concurrency counter maintained by the
	// store; it is not part of the serialized state blob.
	Version int64 `json:"-"`
}

// NewRecord creates a fresh record with the graph's roots unlocked and the
// first root as the initial focus.
func NewRecord(learnerID string, g *kgraph.Graph, initialElo float64, now time.Time) *Record {
	rec := &Record{
		LearnerID:       learnerID,
		SubjectID:       g.SubjectID(),
		EloRating:       initialElo,
		Concepts:        make(map[string]*ConceptMastery),
		Unlocked:        make(map[string]bool),
		Mastered:        make(map[string]bool),
		RecentQuestions: make(map[string][]string),
		CreatedAt:       now,
		LastUpdated:     now,
	}

	roots := g.Roots()
	for _, id := range roots {
		c, _ := g.Get(id)
		rec.unlock(c, now)
	}
	if len(roots) > 0 {
		rec.CurrentFocus = roots[0]
	}
	return rec
}

// unlock adds a concept to the unlocked set and seeds its mastery entry
// from the graph's default priors. Idempotent.
func (r *Record) unlock(c kgraph.Concept, now time.Time) {
	if r.Unlocked[c.ID] {
		return
	}
	r.Unlocked[c.ID] = true
	unlockedAt := now
	r.Concepts[c.ID] = &ConceptMastery{
		ConceptID:  c.ID,
		PL:         c.Params.PL0,
		Params:     c.Params,
		Status:     StatusUnlocked,
		UnlockedAt: &unlockedAt,
	}
}

// StatusOf returns the lifecycle status of a concept. Concepts without an
// entry are locked.
func (r *Record) StatusOf(conceptID string) Status {
	switch {
	case r.Mastered[conceptID]:
		return StatusMastered
	case r.Unlocked[conceptID]:
		return StatusUnlocked
	default:
		return StatusLocked
	}
}

// IsUnlocked reports whether the concept is currently available to
// practice. Mastered concepts remain unlocked.
func (r *Record) IsUnlocked(conceptID string) bool {
	return r.Unlocked[conceptID]
}

// MarkMastered promotes a concept into the mastered set. Idempotent; the
// unlocked set is a superset of mastered, so membership there is retained.
func (r *Record) MarkMastered(conceptID string, now time.Time) {
	if r.Mastered[conceptID] {
		return
	}
	r.Mastered[conceptID] = true
	if cm, ok := r.Concepts[conceptID]; ok {
		cm.Status = StatusMastered
		masteredAt := now
		cm.MasteredAt = &masteredAt
	}
}

// RememberQuestion appends a served question id to the concept's recency
// window, trimming to the given size.
func (r *Record) RememberQuestion(conceptID, questionID string, window int) {
	if questionID == "" || window <= 0 {
		return
	}
	if r.RecentQuestions == nil {
		r.RecentQuestions = make(map[string][]string)
	}
	recent := append(r.RecentQuestions[conceptID], questionID)
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}
	r.RecentQuestions[conceptID] = recent
}

// UnlockedNotMastered returns the ids of concepts available to practice
// but not yet mastered, sorted for determinism.
func (r *Record) UnlockedNotMastered() []string {
	var ids []string
	for id := range r.Unlocked {
		if !r.Mastered[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// MasteredIDs returns the mastered concept ids, sorted.
func (r *Record) MasteredIDs() []string {
	ids := make([]string, 0, len(r.Mastered))
	for id := range r.Mastered {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AverageMastery returns the mean P(L) across all tracked concepts, or 0
// when nothing has been unlocked.
func (r *Record) AverageMastery() float64 {
	if len(r.Concepts) == 0 {
		return 0
	}
	var sum float64
	for _, cm := range r.Concepts {
		sum += cm.PL
	}
	return sum / float64(len(r.Concepts))
}
