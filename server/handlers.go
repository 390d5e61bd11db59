package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/poiesic/answerdesk/core"
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer,omitempty"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status            string `json:"status"`
	KnowledgeBaseSize int    `json:"knowledge_base_size"`
	Degraded          bool   `json:"degraded"`
}

type unansweredResponse struct {
	Success         bool             `json:"success"`
	Total           int              `json:"total"`
	UnansweredCount int              `json:"unanswered_count"`
	PendingOverflow bool             `json:"pending_overflow"`
	Questions       []core.LogRecord `json:"questions"`
	Error           string           `json:"error,omitempty"`
}

type markAnsweredRequest struct {
	Question string `json:"question"`
	Note     string `json:"note"`
}

type markAnsweredResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleChat answers one question.
// POST /api/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, chatResponse{Error: "invalid request body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.writeJSON(w, http.StatusBadRequest, chatResponse{Error: "question is required"})
		return
	}

	text, err := s.backend.GenerateAnswer(r.Context(), question)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrEmptyQuestion) {
			status = http.StatusBadRequest
		}
		s.logger.Error("chat failed", "question", question, "err", err)
		s.writeJSON(w, status, chatResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, chatResponse{Success: true, Answer: text})
}

// handleHealth reports liveness and corpus size.
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.backend.Stats(r.Context())
	status := "ok"
	if st.Degraded {
		status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:            status,
		KnowledgeBaseSize: st.KnowledgeBaseSize,
		Degraded:          st.Degraded,
	})
}

// handleUnanswered merges any spilled questions and lists the log.
// GET /api/unanswered
func (s *Server) handleUnanswered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.backend.Stats(ctx).LoggingEnabled {
		s.writeJSON(w, http.StatusNotFound, unansweredResponse{
			Questions: []core.LogRecord{},
			Error:     "question logging is disabled",
		})
		return
	}

	if _, err := s.backend.MergePending(ctx); err != nil {
		// The overflow file is left intact; list what the log has now.
		s.logger.Error("merge before listing failed", "err", err)
	}

	questions := s.backend.Questions(ctx)
	st := s.backend.Stats(ctx)
	s.writeJSON(w, http.StatusOK, unansweredResponse{
		Success:         true,
		Total:           len(questions),
		UnansweredCount: st.Unanswered,
		PendingOverflow: st.PendingOverflow,
		Questions:       questions,
	})
}

// handleMarkAnswered flags a logged question as answered.
// POST /api/unanswered/answered
func (s *Server) handleMarkAnswered(w http.ResponseWriter, r *http.Request) {
	var req markAnsweredRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, markAnsweredResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeJSON(w, http.StatusBadRequest, markAnsweredResponse{Error: "question is required"})
		return
	}
	if !s.backend.MarkAnswered(r.Context(), req.Question, req.Note) {
		s.writeJSON(w, http.StatusNotFound, markAnsweredResponse{Error: "question not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, markAnsweredResponse{Success: true})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "err", err)
	}
}
