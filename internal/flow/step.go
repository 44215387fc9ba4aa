// Package flow implements the step-by-step twin creation flow: the step state
// machine, the per-session data it owns and the turn-limited conversation.
package flow

import "fmt"

// Step is the view currently shown to the user.
type Step int

const (
	// StepDataSource collects the writing sample.
	StepDataSource Step = iota
	// StepQuiz collects the personality questionnaire.
	StepQuiz
	// StepGenerating waits for the persona.
	StepGenerating
	// StepChat runs the turn-limited conversation.
	StepChat
	// StepRating collects the user's ratings.
	StepRating
	// StepFinal thanks the user and offers a restart.
	StepFinal
)

var stepNames = [...]string{
	StepDataSource: "data_source",
	StepQuiz:       "quiz",
	StepGenerating: "generating",
	StepChat:       "chat",
	StepRating:     "rating",
	StepFinal:      "final",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Steps lists every step in flow order.
func Steps() []Step {
	return []Step{StepDataSource, StepQuiz, StepGenerating, StepChat, StepRating, StepFinal}
}

// EventKind identifies what happened.
type EventKind int

const (
	// EventSubmitSource submits the writing sample.
	EventSubmitSource EventKind = iota
	// EventSubmitQuiz submits the questionnaire.
	EventSubmitQuiz
	// EventPersonaReady delivers a generated persona.
	EventPersonaReady
	// EventPersonaFailed reports a failed persona generation.
	EventPersonaFailed
	// EventCompleteChat is the explicit "done chatting" signal.
	EventCompleteChat
	// EventSubmitRatings submits the ratings form.
	EventSubmitRatings
	// EventRestart starts over from the first step.
	EventRestart
)

var eventNames = [...]string{
	EventSubmitSource:  "submit_source",
	EventSubmitQuiz:    "submit_quiz",
	EventPersonaReady:  "persona_ready",
	EventPersonaFailed: "persona_failed",
	EventCompleteChat:  "complete_chat",
	EventSubmitRatings: "submit_ratings",
	EventRestart:       "restart",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// EventKinds lists every event kind.
func EventKinds() []EventKind {
	return []EventKind{
		EventSubmitSource, EventSubmitQuiz, EventPersonaReady, EventPersonaFailed,
		EventCompleteChat, EventSubmitRatings, EventRestart,
	}
}

// transitions is the complete state × event table. Pairs that are absent are
// rejected. PersonaFailed is the single backward edge.
var transitions = map[Step]map[EventKind]Step{
	StepDataSource: {EventSubmitSource: StepQuiz},
	StepQuiz:       {EventSubmitQuiz: StepGenerating},
	StepGenerating: {EventPersonaReady: StepChat, EventPersonaFailed: StepQuiz},
	StepChat:       {EventCompleteChat: StepRating},
	StepRating:     {EventSubmitRatings: StepFinal},
	StepFinal:      {EventRestart: StepDataSource},
}

// Next returns the target of an edge and whether the edge exists.
func Next(from Step, kind EventKind) (Step, bool) {
	to, ok := transitions[from][kind]
	return to, ok
}
