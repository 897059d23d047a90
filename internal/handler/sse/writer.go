package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"garbanzo/internal/service/llm"
)

// StreamEvent is the wire envelope sent on the SSE stream. Type is one of
// chunk, thinking, done, or error.
type StreamEvent struct {
	Type     string         `json:"type"`
	Content  *string        `json:"content,omitempty"`
	Error    *string        `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FromChunk maps a canonical chunk to its wire envelope. An error terminal
// takes precedence over the done flag so a failed stream never reads as a
// clean finish.
func FromChunk(chunk llm.Chunk) StreamEvent {
	switch {
	case chunk.IsError():
		msg := chunk.Content
		if msg == "" {
			msg = "stream failed"
		}
		return StreamEvent{Type: "error", Error: &msg, Metadata: chunk.Metadata}
	case chunk.Done:
		return StreamEvent{Type: "done", Metadata: chunk.Metadata}
	case chunk.Thinking:
		return StreamEvent{Type: "thinking", Content: &chunk.Content}
	default:
		return StreamEvent{Type: "chunk", Content: &chunk.Content}
	}
}

// Writer emits server-sent events on an HTTP response.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares the response for SSE and returns a writer. Fails when
// the underlying ResponseWriter cannot flush.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one event as a data frame and flushes it to the client.
func (s *Writer) Send(event StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
