package engine

import "errors"

// Sentinel errors for rejected submissions. Storage-level sentinels
// (record/question not found) pass through from the store package.
var (
	// ErrConceptNotFound means the submission names a concept that is not
	// part of the subject's knowledge graph.
	ErrConceptNotFound = errors.New("concept not found in subject graph")

	// ErrConceptNotUnlocked means the concept exists but its prerequisites
	// have not been mastered yet.
	ErrConceptNotUnlocked = errors.New("concept is locked")
)
