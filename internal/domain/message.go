// Package domain contains core domain types for the digital twin application.
package domain

import (
	"github.com/google/uuid"
)

// Sender identifies who authored a chat message.
type Sender string

const (
	// SenderUser marks messages typed by the person being modelled.
	SenderUser Sender = "user"
	// SenderAI marks messages produced by the twin.
	SenderAI Sender = "ai"
)

// ChatMessage is a single entry of the chat transcript.
type ChatMessage struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// NewMessageID returns a time-ordered identifier. UUIDv7 values sort in
// creation order, so transcript ids compare monotonically as strings.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewUserMessage builds a user-authored message with a fresh id.
func NewUserMessage(text string) ChatMessage {
	return ChatMessage{ID: NewMessageID(), Sender: SenderUser, Text: text}
}

// NewAIMessage builds an AI-authored message with a fresh id.
func NewAIMessage(text string) ChatMessage {
	return ChatMessage{ID: NewMessageID(), Sender: SenderAI, Text: text}
}
