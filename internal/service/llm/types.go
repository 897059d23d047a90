package llm

import (
	"sync/atomic"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Message is one {role, content} pair sent to a generation backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelInfo describes a model a backend can serve.
type ModelInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	ContextLength *int    `json:"context_length,omitempty"`
	Provider      string  `json:"provider"`
}

// ChatOptions are the generation parameters a caller may set per turn.
type ChatOptions struct {
	Temperature float64  `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stream      bool     `json:"stream"`
}

// DefaultChatOptions returns the options used when the caller sends none.
func DefaultChatOptions() *ChatOptions {
	return &ChatOptions{Temperature: 0.7, Stream: true}
}

// Validate checks option ranges.
func (o ChatOptions) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&o.MaxTokens, validation.Min(1)),
		validation.Field(&o.TopP, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Metadata keys carried on terminal chunks.
const (
	MetaError           = "error"             // bool - terminal chunk reports a failure
	MetaErrorType       = "error_type"        // string - not_found, streaming_error, persistence_error
	MetaStatusCode      = "status_code"       // int - backend HTTP status, when one exists
	MetaCancelled       = "cancelled"         // bool - stream ended by user cancellation
	MetaTokensGenerated = "tokens_generated"  // int - completion tokens
	MetaTokensPrompt    = "tokens_prompt"     // int - prompt tokens
	MetaTotalDurationNS = "total_duration_ns" // int64 - backend-reported wall time
	MetaThinking        = "thinking"          // string - accumulated reasoning text
)

// Chunk is one unit of streamed output. A stream is zero or more
// non-terminal chunks (answer text or thinking text) followed by exactly
// one terminal chunk whose Done flag is set and which carries only metadata.
type Chunk struct {
	Content  string         `json:"content"`
	Thinking bool           `json:"thinking,omitempty"`
	Done     bool           `json:"done"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsError reports whether this is a terminal chunk describing a failure.
func (c Chunk) IsError() bool {
	v, ok := c.Metadata[MetaError].(bool)
	return ok && v
}

// IsCancelled reports whether this is a terminal chunk ending a cancelled stream.
func (c Chunk) IsCancelled() bool {
	v, ok := c.Metadata[MetaCancelled].(bool)
	return ok && v
}

// ErrorChunk builds a terminal chunk describing a failure. The content is a
// human-readable description; extra metadata entries may be merged in.
func ErrorChunk(description, errorType string, extra map[string]any) Chunk {
	meta := map[string]any{MetaError: true}
	if errorType != "" {
		meta[MetaErrorType] = errorType
	}
	for k, v := range extra {
		meta[k] = v
	}
	return Chunk{Content: description, Done: true, Metadata: meta}
}

// CancelledChunk builds the terminal chunk ending a cancelled stream.
func CancelledChunk() Chunk {
	return Chunk{Done: true, Metadata: map[string]any{MetaCancelled: true}}
}

// CancelSignal is an edge-triggered per-conversation cancellation flag.
// Once set it stays set for the lifetime of the in-flight stream. Adapters
// check it after every backend message; setters and checkers run on
// different goroutines, hence the atomic.
type CancelSignal struct {
	fired atomic.Bool
}

// NewCancelSignal returns an unset signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Set fires the signal. Safe to call more than once.
func (s *CancelSignal) Set() {
	s.fired.Store(true)
}

// Cancelled reports whether the signal has fired.
func (s *CancelSignal) Cancelled() bool {
	return s.fired.Load()
}
