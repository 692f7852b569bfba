package kgraph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/abhisek/masterpath/internal/bkt"
)

func testConcepts() []Concept {
	p := bkt.DefaultParams()
	return []Concept{
		{ID: "a", Name: "A", Params: p},
		{ID: "b", Name: "B", Prerequisites: []string{"a"}, Params: p},
		{ID: "c", Name: "C", Prerequisites: []string{"a"}, Params: p},
		{ID: "d", Name: "D", Prerequisites: []string{"b", "c"}, Params: p},
	}
}

func TestBuild_DiamondGraph(t *testing.T) {
	g, err := Build("test", testConcepts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Len() != 4 {
		t.Errorf("got %d concepts, want 4", g.Len())
	}
	if got := g.Roots(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("roots: got %v, want [a]", got)
	}
	if got := g.SuccessorsOf("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("successors of a: got %v, want [b c]", got)
	}
	if got := g.PrerequisitesOf("d"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("prerequisites of d: got %v, want [b c]", got)
	}
	if got := g.SuccessorsOf("d"); got != nil {
		t.Errorf("successors of d: got %v, want nil", got)
	}
}

func TestBuild_Depths(t *testing.T) {
	g, err := Build("test", testConcepts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}
	for id, depth := range want {
		c, ok := g.Get(id)
		if !ok {
			t.Fatalf("concept %q missing", id)
		}
		if c.Depth != depth {
			t.Errorf("depth of %q: got %d, want %d", id, c.Depth, depth)
		}
	}
}

func TestBuild_ConceptsOrderedByDepth(t *testing.T) {
	g, err := Build("test", testConcepts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, c := range g.Concepts() {
		ids = append(ids, c.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c", "d"}) {
		t.Errorf("depth ordering: got %v", ids)
	}
}

func TestBuild_TopologicalOrder(t *testing.T) {
	g, err := Build("test", testConcepts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, id := range g.TopologicalOrder() {
		pos[id] = i
	}
	for _, c := range g.Concepts() {
		for _, prereq := range c.Prerequisites {
			if pos[prereq] >= pos[c.ID] {
				t.Errorf("prerequisite %q should precede %q in topological order", prereq, c.ID)
			}
		}
	}
}

func TestBuild_CycleRejected(t *testing.T) {
	p := bkt.DefaultParams()
	concepts := []Concept{
		{ID: "a", Name: "A", Prerequisites: []string{"c"}, Params: p},
		{ID: "b", Name: "B", Prerequisites: []string{"a"}, Params: p},
		{ID: "c", Name: "C", Prerequisites: []string{"b"}, Params: p},
	}
	_, err := Build("test", concepts)
	if err == nil {
		t.Fatal("expected cycle to be rejected")
	}
	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidError, got %T", err)
	}
}

func TestBuild_DanglingPrerequisiteRejected(t *testing.T) {
	p := bkt.DefaultParams()
	concepts := []Concept{
		{ID: "a", Name: "A", Params: p},
		{ID: "b", Name: "B", Prerequisites: []string{"ghost"}, Params: p},
	}
	if _, err := Build("test", concepts); err == nil {
		t.Fatal("expected dangling prerequisite to be rejected")
	}
}

func TestBuild_DuplicateIDRejected(t *testing.T) {
	p := bkt.DefaultParams()
	concepts := []Concept{
		{ID: "a", Name: "A", Params: p},
		{ID: "a", Name: "A again", Params: p},
	}
	if _, err := Build("test", concepts); err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestBuild_SelfPrerequisiteRejected(t *testing.T) {
	p := bkt.DefaultParams()
	concepts := []Concept{
		{ID: "a", Name: "A", Prerequisites: []string{"a"}, Params: p},
	}
	if _, err := Build("test", concepts); err == nil {
		t.Fatal("expected self-prerequisite to be rejected")
	}
}
