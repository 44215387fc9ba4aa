package flow

import (
	"fmt"
	"strings"

	"github.com/ashureev/digital-twin/internal/domain"
	"github.com/ashureev/digital-twin/internal/quiz"
)

// Session is everything one user interaction owns. Nothing in it outlives a
// restart.
type Session struct {
	Step      Step
	Questions []quiz.Question
	Source    string
	Answers   quiz.Answers
	Persona   string
	Ratings   domain.Ratings
	// Error is the banner shown after a failed persona generation.
	Error        string
	Conversation *Conversation
}

// NewSession returns a session at the first step with default values.
func NewSession(questions []quiz.Question) Session {
	return Session{
		Step:         StepDataSource,
		Questions:    questions,
		Answers:      quiz.Answers{},
		Ratings:      domain.DefaultRatings(),
		Conversation: NewConversation(),
	}
}

// CanSubmitSource reports whether the data source "Next" control is enabled.
func CanSubmitSource(text string) bool {
	return strings.TrimSpace(text) != ""
}

// CanSubmitQuiz reports whether the quiz "Next" control is enabled.
func (s Session) CanSubmitQuiz(answers quiz.Answers) bool {
	return quiz.AllAnswered(s.Questions, answers)
}

// Event is an input to Transition. Only the field matching Kind is read.
type Event struct {
	Kind    EventKind
	Text    string
	Answers quiz.Answers
	Persona string
	Err     error
	Ratings domain.Ratings
}

// SubmitSource builds an EventSubmitSource.
func SubmitSource(text string) Event { return Event{Kind: EventSubmitSource, Text: text} }

// SubmitQuiz builds an EventSubmitQuiz.
func SubmitQuiz(answers quiz.Answers) Event { return Event{Kind: EventSubmitQuiz, Answers: answers} }

// PersonaReady builds an EventPersonaReady.
func PersonaReady(persona string) Event { return Event{Kind: EventPersonaReady, Persona: persona} }

// PersonaFailed builds an EventPersonaFailed.
func PersonaFailed(err error) Event { return Event{Kind: EventPersonaFailed, Err: err} }

// CompleteChat builds an EventCompleteChat.
func CompleteChat() Event { return Event{Kind: EventCompleteChat} }

// SubmitRatings builds an EventSubmitRatings.
func SubmitRatings(r domain.Ratings) Event { return Event{Kind: EventSubmitRatings, Ratings: r} }

// Restart builds an EventRestart.
func Restart() Event { return Event{Kind: EventRestart} }

// Transition applies e to s and returns the resulting session. s is not
// modified; on error the returned session equals s.
func Transition(s Session, e Event) (Session, error) {
	to, ok := Next(s.Step, e.Kind)
	if !ok {
		return s, fmt.Errorf("%w: %s on step %s", ErrInvalidTransition, e.Kind, s.Step)
	}

	next := s
	switch e.Kind {
	case EventSubmitSource:
		if !CanSubmitSource(e.Text) {
			return s, ErrEmptySource
		}
		next.Source = e.Text

	case EventSubmitQuiz:
		if !s.CanSubmitQuiz(e.Answers) {
			return s, fmt.Errorf("%w: missing %v", ErrIncompleteQuiz, quiz.Missing(s.Questions, e.Answers))
		}
		next.Answers = e.Answers.Clone()
		next.Error = ""

	case EventPersonaReady:
		persona := strings.TrimSpace(e.Persona)
		if persona == "" {
			return s, ErrEmptyPersona
		}
		next.Persona = persona
		next.Conversation = NewConversation()

	case EventPersonaFailed:
		// Source and answers stay as entered so the user can resubmit.
		next.Error = ClassifyGenerationError(e.Err)

	case EventCompleteChat:
		if s.Conversation == nil || !s.Conversation.CanAdvance() {
			return s, ErrTooFewTurns
		}

	case EventSubmitRatings:
		if err := e.Ratings.Validate(); err != nil {
			return s, fmt.Errorf("%w: %w", ErrInvalidRatings, err)
		}
		next.Ratings = e.Ratings

	case EventRestart:
		return NewSession(s.Questions), nil
	}

	next.Step = to
	return next, nil
}
