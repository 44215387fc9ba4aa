package api

import (
	"net/http"

	"github.com/ashureev/digital-twin/internal/quiz"
)

// QuestionsResponse lists the questionnaire in display order.
type QuestionsResponse struct {
	Questions []quiz.Question `json:"questions"`
}

// GetQuestions handles GET /api/questions.
func (h *Handler) GetQuestions(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, QuestionsResponse{Questions: h.questions})
}
