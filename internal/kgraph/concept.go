package kgraph

import "github.com/abhisek/masterpath/internal/bkt"

// Concept is a single node in a subject's prerequisite DAG.
type Concept struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Prerequisites []string   `json:"prerequisites"`
	Params        bkt.Params `json:"params"`
	// Depth is the maximum distance from a root (roots are 0). Computed at
	// build time; any value in the source file is ignored.
	Depth int `json:"depth"`
}

// IsRoot reports whether the concept has no prerequisites.
func (c Concept) IsRoot() bool {
	return len(c.Prerequisites) == 0
}
