package recommend

import (
	"testing"
	"time"

	"github.com/abhisek/masterpath/internal/bkt"
	"github.com/abhisek/masterpath/internal/kgraph"
	"github.com/abhisek/masterpath/internal/mastery"
	"github.com/abhisek/masterpath/internal/question"
)

func buildGraph(t *testing.T, concepts []kgraph.Concept) *kgraph.Graph {
	t.Helper()
	g, err := kgraph.Build("test", concepts)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func twoRootGraph(t *testing.T) *kgraph.Graph {
	p := bkt.DefaultParams()
	return buildGraph(t, []kgraph.Concept{
		{ID: "a", Name: "Alpha", Params: p},
		{ID: "b", Name: "Beta", Params: p},
		{ID: "c", Name: "Gamma", Prerequisites: []string{"a", "b"}, Params: p},
	})
}

func poolFor(concept string, ratings map[string]float64) []question.Question {
	var pool []question.Question
	for id, r := range ratings {
		pool = append(pool, question.Question{ID: id, ConceptID: concept, Rating: r})
	}
	return pool
}

func TestNext_WeakestActiveConcept(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.70
	rec.Concepts["b"].PL = 0.30

	got := Next(rec, g, poolFor("b", map[string]float64{"q1": 1200}))
	if got.Outcome != OutcomePractice {
		t.Fatalf("outcome: got %s, want practice", got.Outcome)
	}
	if got.ConceptID != "b" {
		t.Errorf("should target the lowest P(L) concept, got %q", got.ConceptID)
	}
}

func TestNext_TieBrokenBySmallestID(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.30
	rec.Concepts["b"].PL = 0.30

	got := Next(rec, g, poolFor("a", map[string]float64{"q1": 1200}))
	if got.ConceptID != "a" {
		t.Errorf("ties must break toward the smallest id, got %q", got.ConceptID)
	}
}

func TestNext_NeverRecommendsLockedConcept(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())

	pool := []question.Question{{ID: "qc", ConceptID: "c", Rating: 1200}}
	got := Next(rec, g, pool)
	if got.ConceptID == "c" {
		t.Fatal("c has unmastered prerequisites and must not be recommended")
	}
}

func TestNext_ReviewModeWhenAllMastered(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	for _, id := range []string{"a", "b"} {
		rec.MarkMastered(id, time.Now())
		mastery.Propagate(g, rec, id, time.Now())
	}
	rec.MarkMastered("c", time.Now())
	mastery.Propagate(g, rec, "c", time.Now())

	got := Next(rec, g, poolFor("a", map[string]float64{"q1": 1200}))
	if got.Outcome != OutcomeReview {
		t.Fatalf("outcome: got %s, want review", got.Outcome)
	}
	if got.ConceptID != "a" {
		t.Errorf("review should pick the smallest mastered id, got %q", got.ConceptID)
	}
}

func TestNext_EmptyGraphTerminal(t *testing.T) {
	g := buildGraph(t, nil)
	rec := &mastery.Record{
		Unlocked: map[string]bool{},
		Mastered: map[string]bool{},
		Concepts: map[string]*mastery.ConceptMastery{},
	}

	got := Next(rec, g, nil)
	if got.Outcome != OutcomeNoConcept {
		t.Fatalf("outcome: got %s, want no-concept", got.Outcome)
	}
	if got.Question != nil {
		t.Error("terminal recommendation must carry no question")
	}
}

func TestNext_QuestionClosestToElo(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.10
	rec.Concepts["b"].PL = 0.90

	pool := poolFor("a", map[string]float64{
		"q-easy": 1000,
		"q-mid":  1180,
		"q-hard": 1400,
	})
	got := Next(rec, g, pool)
	if got.Question == nil || got.Question.ID != "q-mid" {
		t.Fatalf("expected q-mid (closest to 1200), got %+v", got.Question)
	}
}

func TestNext_QuestionTieBrokenBySmallestID(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.10
	rec.Concepts["b"].PL = 0.90

	pool := poolFor("a", map[string]float64{"q2": 1150, "q1": 1250})
	got := Next(rec, g, pool)
	if got.Question == nil || got.Question.ID != "q1" {
		t.Fatalf("equidistant ratings must break toward smallest id, got %+v", got.Question)
	}
}

func TestNext_RecencyWindowExcluded(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.10
	rec.Concepts["b"].PL = 0.90
	rec.RememberQuestion("a", "q-mid", 5)

	pool := poolFor("a", map[string]float64{"q-mid": 1200, "q-far": 1350})
	got := Next(rec, g, pool)
	if got.Question == nil || got.Question.ID != "q-far" {
		t.Fatalf("recently served question should be excluded, got %+v", got.Question)
	}
}

func TestNext_RecencyFallbackToFullPool(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.10
	rec.Concepts["b"].PL = 0.90
	rec.RememberQuestion("a", "q-only", 5)

	pool := poolFor("a", map[string]float64{"q-only": 1200})
	got := Next(rec, g, pool)
	if got.Question == nil || got.Question.ID != "q-only" {
		t.Fatalf("exhausted window should fall back to the full pool, got %+v", got.Question)
	}
}

func TestNext_NoQuestionDistinctFromNoConcept(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.10
	rec.Concepts["b"].PL = 0.90

	got := Next(rec, g, nil)
	if got.Outcome != OutcomeNoQuestion {
		t.Fatalf("outcome: got %s, want no-question", got.Outcome)
	}
	if got.ConceptID != "a" {
		t.Errorf("no-question still names the target concept, got %q", got.ConceptID)
	}
}

func TestNext_Deterministic(t *testing.T) {
	g := twoRootGraph(t)
	rec := mastery.NewRecord("l", g, 1200, time.Now())
	rec.Concepts["a"].PL = 0.42
	rec.Concepts["b"].PL = 0.42

	pool := poolFor("a", map[string]float64{"q1": 1100, "q2": 1250, "q3": 1210})
	first := Next(rec, g, pool)
	for i := 0; i < 20; i++ {
		again := Next(rec, g, pool)
		if again.ConceptID != first.ConceptID || again.Question.ID != first.Question.ID {
			t.Fatalf("recommendation not deterministic: %+v vs %+v", first, again)
		}
	}
}
