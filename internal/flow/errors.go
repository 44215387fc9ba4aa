package flow

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidTransition is returned for events the current step does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrEmptySource is returned when the writing sample is blank.
	ErrEmptySource = errors.New("source text is empty")
	// ErrIncompleteQuiz is returned when a question is left unanswered.
	ErrIncompleteQuiz = errors.New("quiz is incomplete")
	// ErrEmptyPersona is returned when a blank persona is delivered.
	ErrEmptyPersona = errors.New("persona is empty")
	// ErrTooFewTurns is returned when the chat is completed before MinTurns.
	ErrTooFewTurns = errors.New("not enough chat turns")
	// ErrInvalidRatings is returned when a rating is out of range.
	ErrInvalidRatings = errors.New("invalid ratings")
	// ErrComposerDisabled is returned when a message is sent while the composer is locked.
	ErrComposerDisabled = errors.New("composer is disabled")
	// ErrEmptyMessage is returned when a blank chat message is sent.
	ErrEmptyMessage = errors.New("message is empty")
)

// User-facing banners for persona generation failures.
const (
	MessageRegionUnavailable = "Sorry, the AI service is not available in your region."
	MessageInvalidCredential = "The API key is invalid or missing. Please contact support."
	MessageGenerationFailed  = "Failed to generate your Digital Twin. Please try again."
)

// ClassifyGenerationError maps a persona generation failure to the banner
// shown on the quiz step. Matching is by substring of the failure text.
func ClassifyGenerationError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "PERMISSION_DENIED"), strings.Contains(msg, "Region not supported"):
		return MessageRegionUnavailable
	case strings.Contains(msg, "API_KEY"), strings.Contains(strings.ToLower(msg), "api key"):
		return MessageInvalidCredential
	default:
		return MessageGenerationFailed
	}
}
