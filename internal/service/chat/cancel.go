package chat

import (
	"sync"

	"garbanzo/internal/service/llm"
)

// CancelRegistry tracks the cancellation signal of each active stream,
// keyed by conversation id. One entry is inserted when a stream starts and
// removed when it ends; cancel requests look entries up from other
// goroutines, so access is lock-protected.
//
// At most one stream per conversation is expected by contract. When two
// streams race on the same conversation the later registration wins and
// cancelling affects only the most recently registered stream.
type CancelRegistry struct {
	mu      sync.Mutex
	streams map[string]*llm.CancelSignal
}

// NewCancelRegistry creates an empty cancellation registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{streams: make(map[string]*llm.CancelSignal)}
}

// Register installs a fresh signal for the conversation, overwriting any
// stale prior entry, and returns it.
func (r *CancelRegistry) Register(conversationID string) *llm.CancelSignal {
	signal := llm.NewCancelSignal()
	r.mu.Lock()
	r.streams[conversationID] = signal
	r.mu.Unlock()
	return signal
}

// Remove drops the conversation's entry. Safe to call when absent.
func (r *CancelRegistry) Remove(conversationID string) {
	r.mu.Lock()
	delete(r.streams, conversationID)
	r.mu.Unlock()
}

// Cancel fires the signal of the conversation's active stream. Returns
// false when no stream is active, which is a no-op report, not an error.
func (r *CancelRegistry) Cancel(conversationID string) bool {
	r.mu.Lock()
	signal, ok := r.streams[conversationID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	signal.Set()
	return true
}

// Active reports whether the conversation currently has a registered stream.
func (r *CancelRegistry) Active(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.streams[conversationID]
	return ok
}
