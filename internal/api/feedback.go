package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ashureev/digital-twin/internal/domain"
	"github.com/ashureev/digital-twin/internal/flow"
	"github.com/ashureev/digital-twin/internal/identity"
	"github.com/ashureev/digital-twin/internal/store"
)

const maxFeedbackBodySize = 64 << 10

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	Persona string         `json:"persona"`
	Ratings domain.Ratings `json:"ratings"`
	Turns   int            `json:"turns"`
}

// FeedbackCreated is the success body of POST /api/feedback.
type FeedbackCreated struct {
	ID string `json:"id"`
}

// FeedbackList is the body of GET /api/feedback.
type FeedbackList struct {
	Feedback []*domain.Feedback `json:"feedback"`
}

// CreateFeedback handles POST /api/feedback.
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFeedbackBodySize)

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Persona) == "" {
		Error(w, http.StatusBadRequest, "persona is required")
		return
	}
	if err := req.Ratings.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Turns < flow.MinTurns || req.Turns > flow.MaxTurns {
		Error(w, http.StatusBadRequest, "turns out of range")
		return
	}

	fb := &domain.Feedback{
		ClientID: identity.UserIDFromContext(r.Context()),
		Persona:  req.Persona,
		Ratings:  req.Ratings,
		Turns:    req.Turns,
	}
	if err := h.repo.SaveFeedback(r.Context(), fb); err != nil {
		if errors.Is(err, store.ErrInvalidFeedback) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Failed to save feedback", "error", err, "client_id", fb.ClientID)
		Error(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}

	slog.Info("Feedback recorded",
		"feedback_id", fb.ID,
		"client_id", fb.ClientID,
		"accuracy", fb.Ratings.Accuracy,
		"consciousness", fb.Ratings.Consciousness,
		"turns", fb.Turns,
	)
	JSON(w, http.StatusCreated, FeedbackCreated{ID: fb.ID})
}

// ListFeedback handles GET /api/feedback?limit=N.
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := h.repo.ListFeedback(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list feedback", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	if items == nil {
		items = []*domain.Feedback{}
	}
	JSON(w, http.StatusOK, FeedbackList{Feedback: items})
}
