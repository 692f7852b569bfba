// Package httpapi exposes the mastery engine over a JSON HTTP API.
// Handlers stay thin: decode, call the engine, map errors onto status
// codes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/abhisek/masterpath/internal/engine"
	"github.com/abhisek/masterpath/internal/kgraph"
	"github.com/abhisek/masterpath/internal/mistake"
	"github.com/abhisek/masterpath/internal/question"
	"github.com/abhisek/masterpath/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc            *engine.Service
	graphs         *kgraph.Registry
	logger         *zap.Logger
	allowedOrigins []string
}

// NewHandler creates the API handler.
func NewHandler(svc *engine.Service, graphs *kgraph.Registry, allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Handler{
		svc:            svc,
		graphs:         graphs,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/subjects", h.listSubjects)
		r.Get("/subjects/{subjectID}/graph", h.subjectGraph)

		r.Route("/learners/{learnerID}/subjects/{subjectID}", func(r chi.Router) {
			r.Post("/initialize", h.initialize)
			r.Post("/submissions", h.submitAnswer)
			r.Get("/recommendation", h.recommendation)
			r.Get("/progress", h.progress)
			r.Get("/mastery", h.masteryState)
			r.Get("/concepts/{conceptID}/mistakes", h.conceptMistakes)
			r.Delete("/record", h.reset)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.graphs.Subjects()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

// graphNode and graphEdge shape the graph for visualization clients.
type graphNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

type graphEdge struct {
	From string `json:"from"` // prerequisite
	To   string `json:"to"`
}

func (h *Handler) subjectGraph(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	g, err := h.graphs.Load(subjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	nodes := make([]graphNode, 0, g.Len())
	var edges []graphEdge
	for _, c := range g.Concepts() {
		nodes = append(nodes, graphNode{ID: c.ID, Name: c.Name, Depth: c.Depth})
		for _, p := range c.Prerequisites {
			edges = append(edges, graphEdge{From: p, To: c.ID})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subject_id": g.SubjectID(),
		"nodes":      nodes,
		"edges":      edges,
	})
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	subjectID := chi.URLParam(r, "subjectID")

	rec, created, err := h.svc.Initialize(r.Context(), learnerID, subjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"created": created,
		"record":  rec,
	})
}

type submissionRequest struct {
	ConceptID  string `json:"concept_id"`
	QuestionID string `json:"question_id,omitempty"`
	Correct    *bool  `json:"correct"`
	TimeTaken  int    `json:"time_taken_seconds,omitempty"`
	UserAnswer string `json:"user_answer,omitempty"`

	Mistakes []mistakePayload `json:"mistakes,omitempty"`
}

type mistakePayload struct {
	StepNumber int    `json:"step_number"`
	ErrorType  string `json:"error_type"`
	Message    string `json:"message,omitempty"`
	FromExpr   string `json:"from_expr,omitempty"`
	ToExpr     string `json:"to_expr,omitempty"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	subjectID := chi.URLParam(r, "subjectID")

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return
	}
	if req.ConceptID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("concept_id is required"))
		return
	}
	if req.Correct == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("correct is required"))
		return
	}

	in := engine.SubmitInput{
		LearnerID:  learnerID,
		SubjectID:  subjectID,
		ConceptID:  req.ConceptID,
		QuestionID: req.QuestionID,
		Correct:    *req.Correct,
		TimeTaken:  req.TimeTaken,
		UserAnswer: req.UserAnswer,
	}
	for _, m := range req.Mistakes {
		in.Mistakes = append(in.Mistakes, mistake.Record{
			StepNumber: m.StepNumber,
			ErrorType:  mistake.ParseErrorType(m.ErrorType),
			Message:    m.Message,
			FromExpr:   m.FromExpr,
			ToExpr:     m.ToExpr,
		})
	}

	out, err := h.svc.SubmitAnswer(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type recommendationResponse struct {
	Outcome     string             `json:"outcome"`
	ConceptID   string             `json:"concept_id,omitempty"`
	ConceptName string             `json:"concept_name,omitempty"`
	Question    *question.Question `json:"question,omitempty"`
	Reasoning   string             `json:"reasoning"`
}

func (h *Handler) recommendation(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	subjectID := chi.URLParam(r, "subjectID")

	rec, err := h.svc.Recommend(r.Context(), learnerID, subjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// Terminal outcomes (nothing to practice, no questions) are regular
	// 200 payloads distinguished by outcome.
	writeJSON(w, http.StatusOK, recommendationResponse{
		Outcome:     string(rec.Outcome),
		ConceptID:   rec.ConceptID,
		ConceptName: rec.ConceptName,
		Question:    rec.Question,
		Reasoning:   rec.Reasoning,
	})
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	subjectID := chi.URLParam(r, "subjectID")

	sum, err := h.svc.ProgressSummary(r.Context(), learnerID, subjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) masteryState(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	subjectID := chi.URLParam(r, "subjectID")

	view, err := h.svc.MasteryState(r.Context(), learnerID, subjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) conceptMistakes(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	subjectID := chi.URLParam(r, "subjectID")
	conceptID := chi.URLParam(r, "conceptID")

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	mistakes, err := h.svc.ConceptMistakes(r.Context(), learnerID, subjectID, conceptID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if mistakes == nil {
		mistakes = []mistake.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"concept_id": conceptID,
		"mistakes":   mistakes,
	})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	subjectID := chi.URLParam(r, "subjectID")

	if err := h.svc.Reset(r.Context(), learnerID, subjectID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// writeError maps engine and storage errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *kgraph.InvalidError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, kgraph.ErrGraphNotFound),
		errors.Is(err, store.ErrRecordNotFound),
		errors.Is(err, store.ErrQuestionNotFound),
		errors.Is(err, engine.ErrConceptNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrConceptNotUnlocked):
		status = http.StatusConflict
	case errors.As(err, &invalid):
		// A malformed graph file is a deployment problem, not a client one.
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
