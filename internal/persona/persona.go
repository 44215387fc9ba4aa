// Package persona builds the persona-generation prompt and turns the model's
// answer into a clean single-line tag.
package persona

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ashureev/digital-twin/internal/agent"
	"github.com/ashureev/digital-twin/internal/quiz"
)

// ErrEmptyPersona is returned when the model's answer is blank after cleaning.
var ErrEmptyPersona = errors.New("model returned an empty persona")

const (
	// DefaultTemperature keeps tags varied without drifting off format.
	DefaultTemperature float32 = 0.5
	// DefaultMaxTokens bounds the tag length.
	DefaultMaxTokens int32 = 50
)

const promptTemplate = `Based on the user's bio and quiz answers, generate a short persona tag describing their communication style.
The tag must be a single line of text with 5-7 descriptive points separated by a '•' character.
Example: Friendly • Uses slang • Frequent emojis • Asks questions • Concise • Sarcastic undertones
Focus on tone, phrasing, formality, and use of things like emojis or slang.
The output must be plain text only, without any markdown (no asterisks, lists, etc.), and only contain the tag itself.

**User Bio:**
%s

**Personality Quiz Answers:**
%s

**Generated Persona Tag:**
`

var (
	leadingNoise = regexp.MustCompile(`^[\s*#-]+`)
	markdownMark = regexp.MustCompile("[*_`]")
)

// BuildPrompt renders the generation prompt for source and answers.
func BuildPrompt(source string, questions []quiz.Question, answers quiz.Answers) string {
	return fmt.Sprintf(promptTemplate, source, quiz.Format(questions, answers))
}

// Clean strips list markers and markdown emphasis from a model answer.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingNoise.ReplaceAllString(s, "")
	s = markdownMark.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Generator produces persona tags through a model processor.
type Generator struct {
	processor   agent.Processor
	questions   []quiz.Question
	temperature float32
	maxTokens   int32
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int32) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// NewGenerator creates a generator for the given questionnaire.
func NewGenerator(processor agent.Processor, questions []quiz.Question, opts ...Option) *Generator {
	g := &Generator{
		processor:   processor,
		questions:   questions,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate asks the model for a persona tag. It makes exactly one attempt.
func (g *Generator) Generate(ctx context.Context, source string, answers quiz.Answers) (string, error) {
	raw, err := g.processor.Generate(ctx, agent.GenerateRequest{
		Prompt:      BuildPrompt(source, g.questions, answers),
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate persona: %w", err)
	}

	persona := Clean(raw)
	if persona == "" {
		return "", ErrEmptyPersona
	}
	return persona, nil
}
