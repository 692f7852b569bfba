package kgraph

import "fmt"

// validateConcepts performs all structural checks on a subject's concept
// set. Returns an *InvalidError describing every problem found, or nil.
func validateConcepts(subjectID string, concepts []Concept) error {
	var problems []string

	idSet := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		if c.ID == "" {
			problems = append(problems, "concept with empty id")
			continue
		}
		if idSet[c.ID] {
			problems = append(problems, fmt.Sprintf("duplicate concept id: %q", c.ID))
		}
		idSet[c.ID] = true
	}

	for _, c := range concepts {
		for _, prereqID := range c.Prerequisites {
			if !idSet[prereqID] {
				problems = append(problems,
					fmt.Sprintf("concept %q references nonexistent prerequisite %q", c.ID, prereqID))
			}
			if prereqID == c.ID {
				problems = append(problems, fmt.Sprintf("concept %q lists itself as a prerequisite", c.ID))
			}
		}
		if err := c.Params.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("concept %q: %v", c.ID, err))
		}
	}

	// Cycle check via Kahn's algorithm: any node never reaching in-degree
	// zero sits on (or behind) a cycle.
	inDegree := make(map[string]int, len(concepts))
	successors := make(map[string][]string)
	for _, c := range concepts {
		inDegree[c.ID] = len(c.Prerequisites)
		for _, prereqID := range c.Prerequisites {
			successors[prereqID] = append(successors[prereqID], c.ID)
		}
	}

	var queue []string
	for _, c := range concepts {
		if inDegree[c.ID] == 0 {
			queue = append(queue, c.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, succID := range successors[id] {
			inDegree[succID]--
			if inDegree[succID] == 0 {
				queue = append(queue, succID)
			}
		}
	}
	if visited < len(idSet) {
		var cycleNodes []string
		for _, c := range concepts {
			if inDegree[c.ID] > 0 {
				cycleNodes = append(cycleNodes, c.ID)
			}
		}
		problems = append(problems, fmt.Sprintf("cycle detected involving concepts: %v", cycleNodes))
	}

	hasRoot := false
	for _, c := range concepts {
		if c.IsRoot() {
			hasRoot = true
			break
		}
	}
	if len(concepts) > 0 && !hasRoot {
		problems = append(problems, "no root concepts (at least one concept must have no prerequisites)")
	}

	if len(problems) > 0 {
		return &InvalidError{SubjectID: subjectID, Problems: problems}
	}
	return nil
}
