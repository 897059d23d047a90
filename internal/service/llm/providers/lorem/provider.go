package lorem

import (
	"context"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"garbanzo/internal/service/llm"
)

// Provider is a mock backend that streams lorem ipsum text. Used for
// development and testing without a running Ollama instance.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{generator: loremgen.New()}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// streamDelay returns the per-word delay for the given model name.
// lorem-slow streams 2 words/second, lorem-fast 30, anything else 10.
func streamDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "slow"):
		return 500 * time.Millisecond
	case strings.Contains(model, "fast"):
		return 33 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// StreamChat streams generated words as answer chunks, honoring the
// cancellation signal between words, and finishes with fake usage metadata.
func (p *Provider) StreamChat(ctx context.Context, messages []llm.Message, model string, opts *llm.ChatOptions, cancel *llm.CancelSignal) <-chan llm.Chunk {
	out := make(chan llm.Chunk, 10)

	text := p.generator.Paragraph(2, 4)
	words := strings.Fields(text)
	delay := streamDelay(model)

	promptTokens := 0
	for _, msg := range messages {
		promptTokens += len(strings.Fields(msg.Content))
	}

	go func() {
		defer close(out)

		start := time.Now()
		sent := 0
		for i, word := range words {
			if cancel != nil && cancel.Cancelled() {
				out <- llm.CancelledChunk()
				return
			}

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				out <- llm.ErrorChunk(ctx.Err().Error(), "streaming_error", nil)
				return
			}

			content := word
			if i < len(words)-1 {
				content += " "
			}
			out <- llm.Chunk{Content: content}
			sent++
		}

		out <- llm.Chunk{Done: true, Metadata: map[string]any{
			llm.MetaTokensGenerated: sent,
			llm.MetaTokensPrompt:    promptTokens,
			llm.MetaTotalDurationNS: time.Since(start).Nanoseconds(),
		}}
	}()

	return out
}

// ListModels returns the fixed mock catalog.
func (p *Provider) ListModels(ctx context.Context) []llm.ModelInfo {
	fast := "Mock model, 30 words/second"
	slow := "Mock model, 2 words/second"
	return []llm.ModelInfo{
		{ID: "lorem-fast", Name: "Lorem Fast", Description: &fast, Provider: p.Name()},
		{ID: "lorem-slow", Name: "Lorem Slow", Description: &slow, Provider: p.Name()},
	}
}

// HealthCheck always succeeds; there is no backend to reach.
func (p *Provider) HealthCheck(ctx context.Context) bool {
	return true
}
