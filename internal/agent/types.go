// Package agent talks to the generative-language model on behalf of the proxy.
package agent

import (
	"github.com/ashureev/digital-twin/internal/domain"
	"github.com/ashureev/digital-twin/internal/quiz"
)

// Role is the author of a turn in model terms.
type Role string

const (
	// RoleUser marks turns written by the person.
	RoleUser Role = "user"
	// RoleModel marks turns written by the twin.
	RoleModel Role = "model"
)

// Turn is one prior exchange passed to the model as chat history.
type Turn struct {
	Role Role
	Text string
}

// GenerateRequest is a single-shot completion.
type GenerateRequest struct {
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

// ChatRequest is one streamed chat reply.
type ChatRequest struct {
	SystemInstruction string
	History           []Turn
	Message           string
}

// PersonaRequest is the body of POST /api/generate-persona.
type PersonaRequest struct {
	Bio     string       `json:"bio"`
	Answers quiz.Answers `json:"answers"`
}

// PersonaResponse is the success body of POST /api/generate-persona.
type PersonaResponse struct {
	Persona string `json:"persona"`
}

// ChatPayload is the body of POST /api/chat. History includes the message
// being sent as its last entry.
type ChatPayload struct {
	Persona string               `json:"persona"`
	History []domain.ChatMessage `json:"history"`
	Message string               `json:"message"`
}

// ErrorResponse is the JSON error body. Reason carries the upstream failure
// text so callers can classify it.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Config holds model settings shared by every processor.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

const (
	// ProviderGemini selects the Gemini SDK.
	ProviderGemini = "gemini"
	// ProviderOpenAI selects any OpenAI-compatible endpoint.
	ProviderOpenAI = "openai"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)
