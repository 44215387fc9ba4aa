// Package quiz holds the fixed personality questionnaire and the answer model.
package quiz

import (
	"fmt"
	"maps"
	"strings"
)

// QuestionType tells the client how to render a question.
type QuestionType string

const (
	// TypeText is a free-form answer.
	TypeText QuestionType = "text"
	// TypeChoice is one of a fixed set of options.
	TypeChoice QuestionType = "choice"
)

// Question is one entry of the questionnaire.
type Question struct {
	ID      string       `json:"id"`
	Number  int          `json:"number"`
	Prompt  string       `json:"question"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
}

// Answers maps a question id to the user's answer.
type Answers map[string]string

// Clone returns an independent copy. A nil receiver clones to an empty map.
func (a Answers) Clone() Answers {
	if a == nil {
		return Answers{}
	}
	return maps.Clone(a)
}

// AllAnswered reports whether every question has a non-blank answer.
func AllAnswered(questions []Question, answers Answers) bool {
	for _, q := range questions {
		if strings.TrimSpace(answers[q.ID]) == "" {
			return false
		}
	}
	return true
}

// Missing returns the ids of unanswered questions in questionnaire order.
func Missing(questions []Question, answers Answers) []string {
	var missing []string
	for _, q := range questions {
		if strings.TrimSpace(answers[q.ID]) == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Format serializes answers one line per question as "Question N: answer".
// Order and numbering come from the questionnaire, never from map iteration,
// so equal answer sets always produce identical text. Keys that are not in
// the questionnaire and blank answers are left out.
func Format(questions []Question, answers Answers) string {
	var b strings.Builder
	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok || strings.TrimSpace(answer) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Question %d: %s", q.Number, answer)
	}
	return b.String()
}
