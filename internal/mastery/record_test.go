package mastery

import (
	"testing"
	"time"

	"github.com/abhisek/masterpath/internal/bkt"
	"github.com/abhisek/masterpath/internal/kgraph"
)

func chainGraph(t *testing.T) *kgraph.Graph {
	t.Helper()
	p := bkt.DefaultParams()
	g, err := kgraph.Build("test", []kgraph.Concept{
		{ID: "a", Name: "A", Params: p},
		{ID: "b", Name: "B", Prerequisites: []string{"a"}, Params: p},
		{ID: "c", Name: "C", Prerequisites: []string{"b"}, Params: p},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewRecord_UnlocksRootsOnly(t *testing.T) {
	g := chainGraph(t)
	now := time.Now()
	rec := NewRecord("learner-1", g, 1200, now)

	if rec.StatusOf("a") != StatusUnlocked {
		t.Errorf("root should be unlocked, got %s", rec.StatusOf("a"))
	}
	if rec.StatusOf("b") != StatusLocked || rec.StatusOf("c") != StatusLocked {
		t.Error("non-roots should start locked")
	}
	if rec.CurrentFocus != "a" {
		t.Errorf("focus should be first root, got %q", rec.CurrentFocus)
	}

	cm := rec.Concepts["a"]
	if cm == nil {
		t.Fatal("root should have a mastery entry")
	}
	if cm.PL != cm.Params.PL0 {
		t.Errorf("seeded P(L) should equal P_L0: %v != %v", cm.PL, cm.Params.PL0)
	}
	if cm.Observations != 0 {
		t.Errorf("fresh entry should have zero observations, got %d", cm.Observations)
	}
	if cm.UnlockedAt == nil || !cm.UnlockedAt.Equal(now) {
		t.Error("unlocked_at should be set at creation")
	}
}

func TestMarkMastered_KeepsUnlockedSuperset(t *testing.T) {
	g := chainGraph(t)
	rec := NewRecord("learner-1", g, 1200, time.Now())

	rec.MarkMastered("a", time.Now())
	if !rec.Unlocked["a"] {
		t.Error("mastered concepts must remain in the unlocked set")
	}
	if rec.StatusOf("a") != StatusMastered {
		t.Errorf("got %s, want mastered", rec.StatusOf("a"))
	}
	if rec.Concepts["a"].MasteredAt == nil {
		t.Error("mastered_at should be set")
	}
}

func TestRememberQuestion_Window(t *testing.T) {
	g := chainGraph(t)
	rec := NewRecord("learner-1", g, 1200, time.Now())

	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		rec.RememberQuestion("a", q, 3)
	}
	recent := rec.RecentQuestions["a"]
	if len(recent) != 3 {
		t.Fatalf("window should trim to 3, got %d", len(recent))
	}
	if recent[0] != "q2" || recent[2] != "q4" {
		t.Errorf("window should keep the newest ids, got %v", recent)
	}
}

func TestUnlockedNotMastered_Sorted(t *testing.T) {
	p := bkt.DefaultParams()
	g, err := kgraph.Build("test", []kgraph.Concept{
		{ID: "z", Name: "Z", Params: p},
		{ID: "m", Name: "M", Params: p},
		{ID: "a", Name: "A", Params: p},
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecord("learner-1", g, 1200, time.Now())
	got := rec.UnlockedNotMastered()
	if len(got) != 3 || got[0] != "a" || got[1] != "m" || got[2] != "z" {
		t.Errorf("expected sorted ids, got %v", got)
	}
}
