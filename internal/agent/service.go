package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/ashureev/digital-twin/internal/domain"
)

const systemInstructionTemplate = `You are a digital twin. Your communication style must strictly adhere to the following persona tag: "%s". Mimic this style in all your responses. Do not break character. Do not mention that you are an AI or a digital twin. Just act as the person described by the persona.`

// Service provides twin chat on top of a Processor.
type Service struct {
	processor Processor
}

// NewServiceWithProcessor creates a new agent service with a custom processor.
func NewServiceWithProcessor(processor Processor) *Service {
	return &Service{
		processor: processor,
	}
}

// Processor returns the underlying processor.
func (s *Service) Processor() Processor {
	return s.processor
}

// Chat streams the twin's reply to message. history is the client transcript
// ending with message itself; that last entry is dropped before it reaches
// the model.
func (s *Service) Chat(ctx context.Context, persona string, history []domain.ChatMessage, message string) iter.Seq2[string, error] {
	return s.processor.ChatStream(ctx, ChatRequest{
		SystemInstruction: SystemInstruction(persona),
		History:           BuildHistory(history),
		Message:           message,
	})
}

// Close releases resources.
func (s *Service) Close() {
	if s.processor != nil {
		s.processor.Close()
	}
}

// SystemInstruction pins the twin to persona.
func SystemInstruction(persona string) string {
	return fmt.Sprintf(systemInstructionTemplate, persona)
}

// BuildHistory maps transcript senders to model roles and drops the final
// entry, which is the message currently being sent.
func BuildHistory(messages []domain.ChatMessage) []Turn {
	if len(messages) == 0 {
		return []Turn{}
	}
	turns := make([]Turn, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role := RoleModel
		if m.Sender == domain.SenderUser {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: m.Text})
	}
	return turns
}
