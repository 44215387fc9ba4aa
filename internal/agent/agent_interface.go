package agent

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
)

// Processor defines the interface for model access.
type Processor interface {
	// Generate returns the full text of a single-shot completion.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// ChatStream returns reply fragments as the model produces them. A failure
	// is yielded once and ends the sequence.
	ChatStream(ctx context.Context, req ChatRequest) iter.Seq2[string, error]

	// Close releases resources
	Close()
}

var (
	_ Processor = (*GeminiClient)(nil)
	_ Processor = (*OpenAIClient)(nil)
)

// NewProcessor builds the processor selected by cfg.Provider.
func NewProcessor(ctx context.Context, cfg Config, logger *slog.Logger) (Processor, error) {
	switch cfg.Provider {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
