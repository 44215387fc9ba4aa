// Package api provides HTTP handlers for the digital twin API.
//
//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/digital-twin/internal/quiz"
	"github.com/ashureev/digital-twin/internal/store"
	"github.com/go-chi/chi/v5"
)

// Handler serves the questionnaire and feedback endpoints.
type Handler struct {
	repo      store.Repository
	questions []quiz.Question
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, questions []quiz.Question) *Handler {
	return &Handler{
		repo:      repo,
		questions: questions,
	}
}

// RegisterRoutes registers the questionnaire and feedback routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/questions", h.GetQuestions)
	r.Post("/api/feedback", h.CreateFeedback)
	r.Get("/api/feedback", h.ListFeedback)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
