package flow

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/ashureev/digital-twin/internal/domain"
)

const (
	// MinTurns is the number of exchanges required before rating is offered.
	MinTurns = 3
	// MaxTurns is the number of exchanges after which the composer locks.
	MaxTurns = 8
	// ApologyMessage replaces the twin's reply when the relay fails.
	ApologyMessage = "Sorry, I encountered an error. Please try again."
)

// ErrRelayFailed wraps a chat stream failure that was absorbed into the
// transcript as ApologyMessage.
var ErrRelayFailed = errors.New("chat relay failed")

// Relay streams the twin's reply for one turn. history holds the whole
// transcript including message as its last entry.
type Relay interface {
	Chat(ctx context.Context, persona string, history []domain.ChatMessage, message string) iter.Seq2[string, error]
}

// Conversation is the chat transcript and its turn counter.
type Conversation struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
	turns    int
	inFlight bool
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Messages returns a snapshot of the transcript.
func (c *Conversation) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Turns returns the number of completed exchanges.
func (c *Conversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns
}

// InFlight reports whether a reply is currently streaming.
func (c *Conversation) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// ComposerEnabled reports whether a new message may be sent.
func (c *Conversation) ComposerEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.inFlight && c.turns < MaxTurns
}

// CanAdvance reports whether the "rate your twin" control is enabled.
func (c *Conversation) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns >= MinTurns
}

// LimitReached reports whether the turn cap has been hit.
func (c *Conversation) LimitReached() bool {
	return c.Turns() >= MaxTurns
}

// Exchange runs one turn: it appends the user message and an empty AI
// placeholder, folds every streamed fragment into the placeholder, calling
// onUpdate with the placeholder after each change, and counts the turn.
//
// A relay failure replaces the placeholder text with ApologyMessage, still
// counts the turn and returns an error wrapping ErrRelayFailed. The transcript
// then holds exactly one AI message for the turn.
func (c *Conversation) Exchange(ctx context.Context, relay Relay, persona, text string, onUpdate func(domain.ChatMessage)) (domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}
	if onUpdate == nil {
		onUpdate = func(domain.ChatMessage) {}
	}

	c.mu.Lock()
	if c.inFlight || c.turns >= MaxTurns {
		c.mu.Unlock()
		return domain.ChatMessage{}, ErrComposerDisabled
	}
	c.inFlight = true
	c.messages = append(c.messages, domain.NewUserMessage(text))
	history := slices.Clone(c.messages)
	placeholder := domain.NewAIMessage("")
	c.messages = append(c.messages, placeholder)
	idx := len(c.messages) - 1
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.turns++
		c.mu.Unlock()
	}()

	onUpdate(placeholder)

	var reply strings.Builder
	var streamErr error
	for fragment, err := range relay.Chat(ctx, persona, history, text) {
		if err != nil {
			streamErr = err
			break
		}
		if fragment == "" {
			continue
		}
		reply.WriteString(fragment)
		onUpdate(c.setText(idx, reply.String()))
	}

	if streamErr != nil {
		msg := c.setText(idx, ApologyMessage)
		onUpdate(msg)
		return msg, fmt.Errorf("%w: %w", ErrRelayFailed, streamErr)
	}

	c.mu.Lock()
	msg := c.messages[idx]
	c.mu.Unlock()
	return msg, nil
}

func (c *Conversation) setText(idx int, text string) domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[idx].Text = text
	return c.messages[idx]
}
