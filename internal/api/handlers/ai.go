package handlers

import (
	"net/http"

	"github.com/dom/codementor/internal/api/middleware"
	"github.com/dom/codementor/internal/assistant"
	"github.com/dom/codementor/internal/domain"
	"github.com/dom/codementor/internal/service"
)

type AIHandler struct {
	assistantService *service.AssistantService
}

func NewAIHandler(assistantService *service.AssistantService) *AIHandler {
	return &AIHandler{assistantService: assistantService}
}

type ExplainRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type DebugRequest struct {
	Code     string `json:"code"`
	Error    string `json:"error"`
	Language string `json:"language"`
}

type HintRequest struct {
	ExerciseID   string `json:"exerciseId"`
	CurrentCode  string `json:"currentCode"`
	AttemptCount int    `json:"attemptCount"`
}

type ReviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Context  string `json:"context"`
}

type ExplainResponse struct {
	Explanation   string `json:"explanation"`
	Authenticated bool   `json:"authenticated"`
}

type DebugResponse struct {
	Suggestion    string `json:"suggestion"`
	Authenticated bool   `json:"authenticated"`
}

type HintResponse struct {
	Hint          string `json:"hint"`
	Level         int    `json:"level"`
	Authenticated bool   `json:"authenticated"`
}

type ReviewResponse struct {
	Review        string   `json:"review"`
	Suggestions   []string `json:"suggestions"`
	Authenticated bool     `json:"authenticated"`
}

func (h *AIHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, ok := h.assist(w, r, service.AssistInput{
		Task:     assistant.TaskExplain,
		Code:     req.Code,
		Language: req.Language,
	})
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, ExplainResponse{Explanation: result.Text, Authenticated: result.Authenticated})
}

func (h *AIHandler) Debug(w http.ResponseWriter, r *http.Request) {
	var req DebugRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, ok := h.assist(w, r, service.AssistInput{
		Task:     assistant.TaskDebug,
		Code:     req.Code,
		Error:    req.Error,
		Language: req.Language,
	})
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, DebugResponse{Suggestion: result.Text, Authenticated: result.Authenticated})
}

func (h *AIHandler) Hint(w http.ResponseWriter, r *http.Request) {
	var req HintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, ok := h.assist(w, r, service.AssistInput{
		Task:         assistant.TaskHint,
		Code:         req.CurrentCode,
		ExerciseID:   req.ExerciseID,
		AttemptCount: req.AttemptCount,
	})
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, HintResponse{Hint: result.Text, Level: req.AttemptCount, Authenticated: result.Authenticated})
}

func (h *AIHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, ok := h.assist(w, r, service.AssistInput{
		Task:     assistant.TaskReview,
		Code:     req.Code,
		Language: req.Language,
		Context:  req.Context,
	})
	if !ok {
		return
	}

	suggestions := result.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, ReviewResponse{Review: result.Text, Suggestions: suggestions, Authenticated: result.Authenticated})
}

func (h *AIHandler) assist(w http.ResponseWriter, r *http.Request, input service.AssistInput) (*service.AssistResult, bool) {
	if err := input.Validate(); err != nil {
		writeServiceError(w, err)
		return nil, false
	}

	var caller *domain.Identity
	if identity, ok := middleware.GetIdentity(r.Context()); ok {
		caller = &identity
	}

	result, err := h.assistantService.Assist(r.Context(), caller, input)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return result, true
}
