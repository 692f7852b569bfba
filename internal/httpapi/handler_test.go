package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/abhisek/masterpath/internal/engine"
	"github.com/abhisek/masterpath/internal/kgraph"
	"github.com/abhisek/masterpath/internal/question"
	"github.com/abhisek/masterpath/internal/store"
)

const testGraphJSON = `{
	"subject_id": "algebra",
	"concepts": [
		{"id": "a", "name": "Concept A"},
		{"id": "b", "name": "Concept B", "prerequisites": ["a"]}
	]
}`

// newTestServer wires a handler against a temp-dir SQLite store and a
// one-file graph registry.
func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	graphsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(graphsDir, "algebra.json"), []byte(testGraphJSON), 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	graphs := kgraph.NewRegistry(graphsDir)
	svc := engine.NewService(st, graphs, engine.DefaultTuning(), zap.NewNop())
	h := NewHandler(svc, graphs, nil, zap.NewNop())

	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func deleteReq(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s: %v", path, err)
	}
	return resp
}

const base = "/api/v1/learners/alice/subjects/algebra"

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := getJSON(t, ts, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestInitialize(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts, base+"/initialize", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var body struct {
		Created bool `json:"created"`
		Record  struct {
			Unlocked map[string]bool `json:"unlocked"`
		} `json:"record"`
	}
	decodeJSON(t, resp, &body)
	if !body.Created || !body.Record.Unlocked["a"] {
		t.Fatalf("unexpected body %+v", body)
	}

	// Idempotent repeat comes back 200.
	resp = postJSON(t, ts, base+"/initialize", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInitialize_UnknownSubject(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts, "/api/v1/learners/alice/subjects/nope/initialize", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmission_FullFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts, base+"/initialize", nil).Body.Close()

	correct := true
	var last struct {
		Mastered      bool     `json:"mastered"`
		NewlyUnlocked []string `json:"newly_unlocked"`
		Feedback      string   `json:"feedback"`
	}
	for i := 0; i < 20 && !last.Mastered; i++ {
		resp := postJSON(t, ts, base+"/submissions", map[string]any{
			"concept_id": "a",
			"correct":    correct,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submission status = %d", resp.StatusCode)
		}
		decodeJSON(t, resp, &last)
	}
	if !last.Mastered {
		t.Fatal("concept not mastered after 20 correct answers")
	}
	if len(last.NewlyUnlocked) != 1 || last.NewlyUnlocked[0] != "b" {
		t.Fatalf("newly unlocked = %v, want [b]", last.NewlyUnlocked)
	}
	if last.Feedback == "" {
		t.Fatal("feedback missing")
	}
}

func TestSubmission_Validation(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts, base+"/initialize", nil).Body.Close()

	// Missing correct flag.
	resp := postJSON(t, ts, base+"/submissions", map[string]any{"concept_id": "a"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// Missing concept.
	resp = postJSON(t, ts, base+"/submissions", map[string]any{"correct": true})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// Locked concept.
	resp = postJSON(t, ts, base+"/submissions", map[string]any{"concept_id": "b", "correct": true})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown concept.
	resp = postJSON(t, ts, base+"/submissions", map[string]any{"concept_id": "zzz", "correct": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmission_BeforeInitialize(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts, base+"/submissions", map[string]any{"concept_id": "a", "correct": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRecommendation(t *testing.T) {
	ts, st := newTestServer(t)
	postJSON(t, ts, base+"/initialize", nil).Body.Close()

	if _, err := st.ImportQuestions(context.Background(), []question.Question{
		{ID: "q-1", SubjectID: "algebra", ConceptID: "a", Text: "2+2?", Rating: 1200},
	}); err != nil {
		t.Fatalf("ImportQuestions: %v", err)
	}

	resp := getJSON(t, ts, base+"/recommendation")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body recommendationResponse
	decodeJSON(t, resp, &body)
	if body.Outcome != "practice" || body.ConceptID != "a" || body.Question == nil {
		t.Fatalf("unexpected recommendation %+v", body)
	}
}

func TestRecommendation_NoQuestionsIsOK(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts, base+"/initialize", nil).Body.Close()

	resp := getJSON(t, ts, base+"/recommendation")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, terminal outcomes must be 200", resp.StatusCode)
	}
	var body recommendationResponse
	decodeJSON(t, resp, &body)
	if body.Outcome != "no-question" {
		t.Fatalf("outcome = %q, want no-question", body.Outcome)
	}
}

func TestProgressAndMastery(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts, base+"/initialize", nil).Body.Close()
	postJSON(t, ts, base+"/submissions", map[string]any{"concept_id": "a", "correct": true}).Body.Close()

	resp := getJSON(t, ts, base+"/progress")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress status = %d", resp.StatusCode)
	}
	var sum struct {
		TotalQuestionsAnswered int `json:"total_questions_answered"`
		TotalConcepts          int `json:"total_concepts"`
	}
	decodeJSON(t, resp, &sum)
	if sum.TotalQuestionsAnswered != 1 || sum.TotalConcepts != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	resp = getJSON(t, ts, base+"/mastery")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mastery status = %d", resp.StatusCode)
	}
	var view struct {
		Concepts []struct {
			ConceptID string `json:"concept_id"`
			Status    string `json:"status"`
		} `json:"concepts"`
	}
	decodeJSON(t, resp, &view)
	if len(view.Concepts) != 2 {
		t.Fatalf("concepts = %d, want 2", len(view.Concepts))
	}
}

func TestConceptMistakes(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts, base+"/initialize", nil).Body.Close()
	postJSON(t, ts, base+"/submissions", map[string]any{
		"concept_id": "a",
		"correct":    false,
		"mistakes": []map[string]any{
			{"step_number": 1, "error_type": "arithmetic", "message": "sign flip"},
		},
	}).Body.Close()

	resp := getJSON(t, ts, base+"/concepts/a/mistakes?limit=5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Mistakes []struct {
			ErrorType string `json:"error_type"`
		} `json:"mistakes"`
	}
	decodeJSON(t, resp, &body)
	if len(body.Mistakes) != 1 || body.Mistakes[0].ErrorType != "arithmetic" {
		t.Fatalf("unexpected mistakes %+v", body.Mistakes)
	}

	// Bad limit.
	resp = getJSON(t, ts, base+"/concepts/a/mistakes?limit=-1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReset(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts, base+"/initialize", nil).Body.Close()
	postJSON(t, ts, base+"/submissions", map[string]any{"concept_id": "a", "correct": true}).Body.Close()

	resp := deleteReq(t, ts, base+"/record")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Progress now 404s until re-initialized.
	resp = getJSON(t, ts, base+"/progress")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("progress after reset = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubjectGraph(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := getJSON(t, ts, "/api/v1/subjects/algebra/graph")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		SubjectID string      `json:"subject_id"`
		Nodes     []graphNode `json:"nodes"`
		Edges     []graphEdge `json:"edges"`
	}
	decodeJSON(t, resp, &body)
	if body.SubjectID != "algebra" || len(body.Nodes) != 2 {
		t.Fatalf("unexpected graph %+v", body)
	}
	if len(body.Edges) != 1 || body.Edges[0].From != "a" || body.Edges[0].To != "b" {
		t.Fatalf("unexpected edges %+v", body.Edges)
	}
}

func TestListSubjects(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := getJSON(t, ts, "/api/v1/subjects")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Subjects []string `json:"subjects"`
	}
	decodeJSON(t, resp, &body)
	if len(body.Subjects) != 1 || body.Subjects[0] != "algebra" {
		t.Fatalf("subjects = %v", body.Subjects)
	}
}
