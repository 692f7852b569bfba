// Package question models the practice question pool. Questions are
// reference data supplied externally (imported from JSON, typically
// extracted upstream from worksheets); the engine reads them for
// recommendation and adjusts only their difficulty rating and attempt
// counters.
package question

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultRating is the Elo difficulty assigned to imported questions that
// do not declare their own.
const DefaultRating = 1200

// Question is a single practice question tagged with the concept it tests.
type Question struct {
	ID             string  `json:"id"`
	SubjectID      string  `json:"subject_id"`
	ConceptID      string  `json:"concept_id"`
	Text           string  `json:"text"`
	Rating         float64 `json:"rating"`
	TimesAttempted int     `json:"times_attempted"`
	TimesCorrect   int     `json:"times_correct"`
}

// SuccessRate returns the observed fraction of correct attempts, or 0
// when the question has never been attempted.
func (q Question) SuccessRate() float64 {
	if q.TimesAttempted == 0 {
		return 0
	}
	return float64(q.TimesCorrect) / float64(q.TimesAttempted)
}

// LoadFile reads a question pool from a JSON file: either a bare array of
// questions or an object with a top-level "questions" key.
func LoadFile(path string) ([]Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}

	var pool []Question
	if err := json.Unmarshal(raw, &pool); err != nil {
		var wrapped struct {
			Questions []Question `json:"questions"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parse question file %s: %w", path, err)
		}
		pool = wrapped.Questions
	}

	for i, q := range pool {
		if q.ID == "" {
			return nil, fmt.Errorf("question at index %d has no id", i)
		}
		if q.ConceptID == "" {
			return nil, fmt.Errorf("question %q has no concept_id", q.ID)
		}
		if q.Rating < 0 {
			return nil, fmt.Errorf("question %q has negative rating %v", q.ID, q.Rating)
		}
		if q.Rating == 0 {
			pool[i].Rating = DefaultRating
		}
	}
	return pool, nil
}
