// Package kgraph loads and serves per-subject knowledge graphs: directed
// acyclic graphs of concepts whose edges encode prerequisite
// relationships. A graph is validated once at load time and immutable
// afterwards.
package kgraph

import (
	"slices"
	"sort"
)

// Graph holds a validated concept DAG with precomputed indices.
type Graph struct {
	subjectID  string
	concepts   []Concept // ordered by depth, then id
	byID       map[string]*Concept
	successors map[string][]string
	roots      []string
	topoOrder  []string
}

// newGraph constructs a graph from already-validated concepts. It computes
// depths, the topological order (Kahn's algorithm) and all indices.
func newGraph(subjectID string, concepts []Concept) *Graph {
	g := &Graph{
		subjectID:  subjectID,
		concepts:   slices.Clone(concepts),
		byID:       make(map[string]*Concept, len(concepts)),
		successors: make(map[string][]string),
	}

	for i := range g.concepts {
		g.byID[g.concepts[i].ID] = &g.concepts[i]
	}

	// Reverse edges.
	for i := range g.concepts {
		for _, prereqID := range g.concepts[i].Prerequisites {
			g.successors[prereqID] = append(g.successors[prereqID], g.concepts[i].ID)
		}
	}
	for id := range g.successors {
		sort.Strings(g.successors[id])
	}

	// Topological order via Kahn's algorithm, deterministic by sorting the
	// ready queue.
	inDegree := make(map[string]int, len(g.concepts))
	for i := range g.concepts {
		inDegree[g.concepts[i].ID] = len(g.concepts[i].Prerequisites)
	}
	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		g.topoOrder = append(g.topoOrder, id)

		for _, succID := range g.successors[id] {
			inDegree[succID]--
			if inDegree[succID] == 0 {
				queue = append(queue, succID)
			}
		}
		sort.Strings(queue)
	}

	// Depth = max(prerequisite depths) + 1, roots at 0. Safe to compute in
	// topological order because every prerequisite precedes its dependents.
	for _, id := range g.topoOrder {
		c := g.byID[id]
		depth := 0
		for _, prereqID := range c.Prerequisites {
			if p, ok := g.byID[prereqID]; ok && p.Depth+1 > depth {
				depth = p.Depth + 1
			}
		}
		c.Depth = depth
	}

	for i := range g.concepts {
		if g.concepts[i].IsRoot() {
			g.roots = append(g.roots, g.concepts[i].ID)
		}
	}
	sort.Strings(g.roots)

	sort.Slice(g.concepts, func(i, j int) bool {
		if g.concepts[i].Depth != g.concepts[j].Depth {
			return g.concepts[i].Depth < g.concepts[j].Depth
		}
		return g.concepts[i].ID < g.concepts[j].ID
	})
	// Re-point the index after sorting moved the elements.
	for i := range g.concepts {
		g.byID[g.concepts[i].ID] = &g.concepts[i]
	}

	return g
}

// SubjectID returns the subject this graph describes.
func (g *Graph) SubjectID() string {
	return g.subjectID
}

// Len returns the number of concepts in the graph.
func (g *Graph) Len() int {
	return len(g.concepts)
}

// Get returns a concept by id.
func (g *Graph) Get(id string) (Concept, bool) {
	c, ok := g.byID[id]
	if !ok {
		return Concept{}, false
	}
	return *c, true
}

// Concepts returns all concepts ordered by depth, then id.
func (g *Graph) Concepts() []Concept {
	return slices.Clone(g.concepts)
}

// Roots returns the ids of all concepts with no prerequisites, sorted.
func (g *Graph) Roots() []string {
	return slices.Clone(g.roots)
}

// PrerequisitesOf returns the direct prerequisite ids of a concept.
func (g *Graph) PrerequisitesOf(id string) []string {
	c, ok := g.byID[id]
	if !ok {
		return nil
	}
	return slices.Clone(c.Prerequisites)
}

// SuccessorsOf returns the ids of concepts that list id as a direct
// prerequisite, sorted.
func (g *Graph) SuccessorsOf(id string) []string {
	return slices.Clone(g.successors[id])
}

// TopologicalOrder returns all concept ids in a valid topological order.
func (g *Graph) TopologicalOrder() []string {
	return slices.Clone(g.topoOrder)
}
