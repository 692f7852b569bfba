package kgraph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGraphNotFound indicates no graph is configured for the subject.
var ErrGraphNotFound = errors.New("knowledge graph not found")

// InvalidError reports structural problems in a subject's graph: cycles,
// dangling prerequisite references, duplicate ids. The graph is rejected
// outright, never repaired.
type InvalidError struct {
	SubjectID string
	Problems  []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("knowledge graph %q invalid:\n  %s",
		e.SubjectID, strings.Join(e.Problems, "\n  "))
}
