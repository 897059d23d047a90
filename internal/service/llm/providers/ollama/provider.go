package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"garbanzo/internal/service/llm"
)

// Generation can legitimately take minutes on large local models, so the
// shared client carries a generous timeout. Treated as a transport failure
// when exceeded, not as cancellation.
const requestTimeout = 5 * time.Minute

// Provider streams chat completions from a local or remote Ollama instance
// over its newline-delimited JSON HTTP API. Default endpoint:
// http://localhost:11434
type Provider struct {
	baseURL string
	logger  *slog.Logger

	mu     sync.Mutex
	client *http.Client
}

// NewProvider creates an Ollama provider for the given base URL.
func NewProvider(baseURL string, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ollama"
}

// httpClient returns the shared client, creating it lazily so the provider
// can be constructed before the backend is reachable.
func (p *Provider) httpClient() *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		p.client = &http.Client{Timeout: requestTimeout}
	}
	return p.client
}

// chatRequest is the wire format of POST /api/chat.
type chatRequest struct {
	Model    string         `json:"model"`
	Messages []wireMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is one NDJSON object from the streaming chat endpoint.
// Counter fields are pointers so absent keys stay distinguishable from zero.
type chatResponse struct {
	Message struct {
		Role     string `json:"role"`
		Content  string `json:"content"`
		Thinking string `json:"thinking"`
	} `json:"message"`
	Done            bool   `json:"done"`
	EvalCount       *int   `json:"eval_count"`
	PromptEvalCount *int   `json:"prompt_eval_count"`
	TotalDuration   *int64 `json:"total_duration"`
}

// StreamChat opens a streaming completion against /api/chat and translates
// each backend message into a canonical chunk. All failures terminate the
// sequence with a single error chunk; nothing is raised past this boundary.
func (p *Provider) StreamChat(ctx context.Context, messages []llm.Message, model string, opts *llm.ChatOptions, cancel *llm.CancelSignal) <-chan llm.Chunk {
	out := make(chan llm.Chunk, 10)

	go func() {
		defer close(out)
		p.streamChat(ctx, out, messages, model, opts, cancel)
	}()

	return out
}

func (p *Provider) streamChat(ctx context.Context, out chan<- llm.Chunk, messages []llm.Message, model string, opts *llm.ChatOptions, cancel *llm.CancelSignal) {
	if opts == nil {
		opts = llm.DefaultChatOptions()
	}

	wireMessages := make([]wireMessage, len(messages))
	for i, msg := range messages {
		wireMessages[i] = wireMessage{Role: msg.Role, Content: msg.Content}
	}

	options := map[string]any{
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens != nil {
		options["num_predict"] = *opts.MaxTokens
	}
	if opts.TopP != nil {
		options["top_p"] = *opts.TopP
	}

	payload, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: wireMessages,
		Stream:   true,
		Options:  options,
	})
	if err != nil {
		out <- llm.ErrorChunk(fmt.Sprintf("failed to encode request: %v", err), "streaming_error", nil)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		out <- llm.ErrorChunk(fmt.Sprintf("failed to build request: %v", err), "streaming_error", nil)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		p.logger.Error("ollama request failed", "error", err)
		out <- llm.ErrorChunk(fmt.Sprintf("failed to connect to ollama: %v", err), "streaming_error", nil)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out <- p.statusErrorChunk(resp)
		return
	}

	var thinking strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		// Check for cancellation after every backend message.
		if cancel != nil && cancel.Cancelled() {
			out <- llm.CancelledChunk()
			return
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var data chatResponse
		if err := json.Unmarshal(line, &data); err != nil {
			p.logger.Warn("failed to parse ollama response line", "error", err)
			continue
		}

		if data.Done {
			meta := map[string]any{}
			if data.EvalCount != nil {
				meta[llm.MetaTokensGenerated] = *data.EvalCount
			}
			if data.PromptEvalCount != nil {
				meta[llm.MetaTokensPrompt] = *data.PromptEvalCount
			}
			if data.TotalDuration != nil {
				meta[llm.MetaTotalDurationNS] = *data.TotalDuration
			}
			if thinking.Len() > 0 {
				meta[llm.MetaThinking] = thinking.String()
			}
			out <- llm.Chunk{Done: true, Metadata: meta}
			return
		}

		if data.Message.Thinking != "" {
			thinking.WriteString(data.Message.Thinking)
			out <- llm.Chunk{Content: data.Message.Thinking, Thinking: true}
		}
		if data.Message.Content != "" {
			out <- llm.Chunk{Content: data.Message.Content}
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Error("ollama stream read failed", "error", err)
		out <- llm.ErrorChunk(fmt.Sprintf("ollama stream error: %v", err), "streaming_error", nil)
		return
	}

	// Backend closed the stream without a done object.
	out <- llm.ErrorChunk("ollama stream ended unexpectedly", "streaming_error", nil)
}

// statusErrorChunk turns a non-success chat response into a terminal error
// chunk, preferring the backend's own error message when the body carries one.
func (p *Provider) statusErrorChunk(resp *http.Response) llm.Chunk {
	description := fmt.Sprintf("ollama error: %d", resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		description = fmt.Sprintf("ollama error: %s", body.Error)
	}

	p.logger.Error("ollama returned error status", "status", resp.StatusCode)
	return llm.ErrorChunk(description, "streaming_error", map[string]any{
		llm.MetaStatusCode: resp.StatusCode,
	})
}

// tagsResponse is the wire format of GET /api/tags.
type tagsResponse struct {
	Models []struct {
		Name    string `json:"name"`
		Details struct {
			ParameterSize string `json:"parameter_size"`
			Family        string `json:"family"`
		} `json:"details"`
	} `json:"models"`
}

// ListModels fetches the local model catalog. Best-effort: any failure
// yields an empty slice.
func (p *Provider) ListModels(ctx context.Context) []llm.ModelInfo {
	var tags tagsResponse
	if err := p.getTags(ctx, &tags); err != nil {
		p.logger.Error("failed to list ollama models", "error", err)
		return []llm.ModelInfo{}
	}

	models := make([]llm.ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		desc := strings.TrimSpace(fmt.Sprintf("%s %s", paramSizeOrUnknown(m.Details.ParameterSize), m.Details.Family))
		info := llm.ModelInfo{
			ID:          m.Name,
			Name:        displayName(m.Name),
			Description: &desc,
			Provider:    p.Name(),
		}
		if n, ok := estimateContextLength(m.Details.ParameterSize); ok {
			info.ContextLength = &n
		}
		models = append(models, info)
	}
	return models
}

// HealthCheck probes the tags endpoint. Any failure yields false.
func (p *Provider) HealthCheck(ctx context.Context) bool {
	var tags tagsResponse
	return p.getTags(ctx, &tags) == nil
}

func (p *Provider) getTags(ctx context.Context, dest *tagsResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

// displayName builds a human-readable name from an Ollama model id,
// e.g. "deepseek-r1:8b" -> "Deepseek R1 (8b)".
func displayName(modelName string) string {
	name, tag, hasTag := strings.Cut(modelName, ":")

	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	display := strings.Join(words, " ")

	if hasTag && tag != "latest" {
		display += fmt.Sprintf(" (%s)", tag)
	}
	return display
}

func paramSizeOrUnknown(size string) string {
	if size == "" {
		return "Unknown size"
	}
	return size
}

// estimateContextLength maps a parameter-size hint like "7B" to a rough
// context window. Small local models typically run 4K-8K; the largest
// families ship 128K.
func estimateContextLength(paramSize string) (int, bool) {
	if !strings.Contains(paramSize, "B") {
		return 0, false
	}
	size, err := strconv.ParseFloat(strings.TrimSuffix(paramSize, "B"), 64)
	if err != nil {
		return 0, false
	}
	switch {
	case size <= 3:
		return 4096, true
	case size <= 8:
		return 8192, true
	case size <= 20:
		return 32768, true
	default:
		return 131072, true
	}
}
