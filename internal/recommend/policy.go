// Package recommend selects the next concept and question for a learner.
// The policy is deterministic: identical record, graph and pool always
// produce the identical recommendation.
package recommend

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/abhisek/masterpath/internal/kgraph"
	"github.com/abhisek/masterpath/internal/mastery"
	"github.com/abhisek/masterpath/internal/question"
)

// Outcome classifies a recommendation. The two "No*" outcomes are
// terminal done-signals, not failures.
type Outcome string

const (
	// OutcomePractice targets an unlocked, not-yet-mastered concept.
	OutcomePractice Outcome = "practice"
	// OutcomeReview reinforces a mastered concept once everything
	// unlocked has been mastered.
	OutcomeReview Outcome = "review"
	// OutcomeNoQuestion found a target concept but no question for it.
	OutcomeNoQuestion Outcome = "no-question"
	// OutcomeNoConcept found nothing to target at all.
	OutcomeNoConcept Outcome = "no-concept"
)

// Recommendation is the policy's output.
type Recommendation struct {
	Outcome     Outcome
	Question    *question.Question
	ConceptID   string
	ConceptName string
	Reasoning   string
}

// Next picks the learner's next target concept and question.
//
// Concept selection: the unlocked-but-unmastered concept with the lowest
// current P(L) (the weakest active concept), ties broken by smallest id.
// When everything unlocked is mastered, it falls back to reviewing the
// smallest mastered id. Question selection: within the target concept,
// questions served recently to this learner are excluded, then the
// question whose difficulty rating sits closest to the learner's Elo wins,
// ties broken by smallest id.
func Next(rec *mastery.Record, g *kgraph.Graph, pool []question.Question) Recommendation {
	conceptID, outcome, reasoning := targetConcept(rec, g)
	if outcome == OutcomeNoConcept {
		return Recommendation{Outcome: OutcomeNoConcept, Reasoning: reasoning}
	}

	name := conceptID
	if c, ok := g.Get(conceptID); ok {
		name = c.Name
	}

	q := pickQuestion(rec, conceptID, pool)
	if q == nil {
		return Recommendation{
			Outcome:     OutcomeNoQuestion,
			ConceptID:   conceptID,
			ConceptName: name,
			Reasoning:   fmt.Sprintf("No question available for %s.", name),
		}
	}

	return Recommendation{
		Outcome:     outcome,
		Question:    q,
		ConceptID:   conceptID,
		ConceptName: name,
		Reasoning:   fmt.Sprintf(reasoning, name),
	}
}

// targetConcept returns the concept id, the outcome class and a reasoning
// format string with one %s verb for the concept name.
func targetConcept(rec *mastery.Record, g *kgraph.Graph) (string, Outcome, string) {
	if g.Len() == 0 {
		return "", OutcomeNoConcept, "No concepts available in this subject."
	}

	candidates := rec.UnlockedNotMastered()
	if len(candidates) > 0 {
		// Weakest active concept; candidates are pre-sorted by id so a
		// strict comparison keeps the smallest id on ties.
		best := candidates[0]
		bestPL := plOf(rec, best)
		for _, id := range candidates[1:] {
			if pl := plOf(rec, id); pl < bestPL {
				best, bestPL = id, pl
			}
		}
		if cm, ok := rec.Concepts[best]; ok && cm.Observations > 0 {
			return best, OutcomePractice, "Making progress on %s. Keep practicing!"
		}
		return best, OutcomePractice, "Starting work on %s."
	}

	mastered := rec.MasteredIDs()
	if len(mastered) > 0 && len(rec.Unlocked) == len(rec.Mastered) {
		return mastered[0], OutcomeReview, "All unlocked concepts mastered. Reviewing %s for reinforcement."
	}

	return "", OutcomeNoConcept, "Nothing unlocked yet for this subject."
}

func plOf(rec *mastery.Record, conceptID string) float64 {
	if cm, ok := rec.Concepts[conceptID]; ok {
		return cm.PL
	}
	return 0
}

// pickQuestion chooses the question in the concept whose rating is closest
// to the learner's Elo, excluding the learner's recency window first and
// falling back to the full concept pool if the exclusion empties it.
func pickQuestion(rec *mastery.Record, conceptID string, pool []question.Question) *question.Question {
	var all []question.Question
	for _, q := range pool {
		if q.ConceptID == conceptID {
			all = append(all, q)
		}
	}
	if len(all) == 0 {
		return nil
	}

	recent := make(map[string]bool)
	for _, id := range rec.RecentQuestions[conceptID] {
		recent[id] = true
	}

	fresh := all[:0:0]
	for _, q := range all {
		if !recent[q.ID] {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) == 0 {
		fresh = slices.Clone(all)
	}

	sort.Slice(fresh, func(i, j int) bool {
		di := math.Abs(fresh[i].Rating - rec.EloRating)
		dj := math.Abs(fresh[j].Rating - rec.EloRating)
		if di != dj {
			return di < dj
		}
		return fresh[i].ID < fresh[j].ID
	})

	picked := fresh[0]
	return &picked
}
