package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var errNoCandidates = errors.New("model returned no candidates")

// GeminiClient reaches the model through the Gemini SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiClient creates a new Gemini client. No network I/O happens until the
// first request.
func NewGeminiClient(ctx context.Context, cfg Config, logger *slog.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info("Gemini client ready", "model", cfg.Model)

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Close closes the underlying SDK client.
func (c *GeminiClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.Warn("failed to close Gemini client", "error", err)
		}
	}
}

// Generate runs a single-shot completion.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	resp, err := c.generationModel(req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errNoCandidates
	}
	return responseText(resp), nil
}

// generationModel applies req's sampling settings. Temperature is always set,
// so zero means greedy decoding rather than the model default.
func (c *GeminiClient) generationModel(req GenerateRequest) *genai.GenerativeModel {
	m := c.client.GenerativeModel(c.model)
	m.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(req.MaxTokens)
	}
	return m
}

// ChatStream sends req.Message on a chat seeded with req.History.
func (c *GeminiClient) ChatStream(ctx context.Context, req ChatRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m := c.client.GenerativeModel(c.model)
		if req.SystemInstruction != "" {
			m.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(req.SystemInstruction)},
			}
		}

		cs := m.StartChat()
		cs.History = make([]*genai.Content, 0, len(req.History))
		for _, t := range req.History {
			cs.History = append(cs.History, &genai.Content{
				Role:  string(t.Role),
				Parts: []genai.Part{genai.Text(t.Text)},
			})
		}

		it := cs.SendMessageStream(ctx, genai.Text(req.Message))
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("chat stream error: %w", err))
				return
			}

			text := responseText(resp)
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
