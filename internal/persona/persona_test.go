package persona

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/ashureev/digital-twin/internal/agent"
	"github.com/ashureev/digital-twin/internal/quiz"
)

type fakeProcessor struct {
	out  string
	err  error
	reqs []agent.GenerateRequest
}

func (f *fakeProcessor) Generate(_ context.Context, req agent.GenerateRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

func (f *fakeProcessor) ChatStream(context.Context, agent.ChatRequest) iter.Seq2[string, error] {
	return func(func(string, error) bool) {}
}

func (f *fakeProcessor) Close() {}

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Friendly • Concise", "Friendly • Concise"},
		{"  **Friendly** • _Concise_  ", "Friendly • Concise"},
		{"- Friendly • Concise", "Friendly • Concise"},
		{"## * - Warm • `Direct`", "Warm • Direct"},
		{"Self-aware • Laid-back", "Self-aware • Laid-back"},
		{"***", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	t.Parallel()

	questions := quiz.DefaultQuestions()
	a := quiz.Answers{}
	b := quiz.Answers{}
	for i := len(questions) - 1; i >= 0; i-- {
		a[questions[i].ID] = questions[i].Options[0]
	}
	for _, q := range questions {
		b[q.ID] = q.Options[0]
	}

	pa := BuildPrompt("I write tersely.", questions, a)
	pb := BuildPrompt("I write tersely.", questions, b)
	if pa != pb {
		t.Fatal("prompt depends on answer insertion order")
	}
	for _, want := range []string{
		"**User Bio:**\nI write tersely.",
		"Question 1: " + questions[0].Options[0],
		"separated by a '•' character",
		"**Generated Persona Tag:**",
	} {
		if !strings.Contains(pa, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGeneratorPassesSettingsAndCleans(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{out: "  - **Chill** • Emojis  "}
	g := NewGenerator(p, quiz.DefaultQuestions(), WithTemperature(0.7), WithMaxTokens(64))

	got, err := g.Generate(context.Background(), "bio", quiz.Answers{"q1": "Casual"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Chill • Emojis" {
		t.Fatalf("persona = %q", got)
	}
	if len(p.reqs) != 1 {
		t.Fatalf("expected one attempt, got %d", len(p.reqs))
	}
	if p.reqs[0].Temperature != 0.7 || p.reqs[0].MaxTokens != 64 {
		t.Fatalf("settings = %+v", p.reqs[0])
	}
}

func TestGeneratorDefaults(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{out: "Warm"}
	if _, err := NewGenerator(p, nil).Generate(context.Background(), "bio", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.reqs[0].Temperature != DefaultTemperature || p.reqs[0].MaxTokens != DefaultMaxTokens {
		t.Fatalf("settings = %+v", p.reqs[0])
	}
}

func TestGeneratorEmptyOutput(t *testing.T) {
	t.Parallel()

	g := NewGenerator(&fakeProcessor{out: " ** "}, nil)
	if _, err := g.Generate(context.Background(), "bio", nil); !errors.Is(err, ErrEmptyPersona) {
		t.Fatalf("expected ErrEmptyPersona, got %v", err)
	}
}

func TestGeneratorWrapsUpstreamError(t *testing.T) {
	t.Parallel()

	upstream := errors.New("Region not supported")
	p := &fakeProcessor{err: upstream}
	_, err := NewGenerator(p, nil).Generate(context.Background(), "bio", nil)
	if !errors.Is(err, upstream) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if len(p.reqs) != 1 {
		t.Fatalf("generation must not retry, got %d attempts", len(p.reqs))
	}
}
