package llm

import "context"

// Provider is the uniform contract a generation backend adapter implements.
// New backends are added by implementing this interface and registering an
// instance; the streaming engine never sees backend-specific types.
type Provider interface {
	// Name returns the backend name used for registry lookup.
	Name() string

	// StreamChat opens a streaming completion for the given history and
	// relays canonical chunks on the returned channel. The channel always
	// ends with exactly one terminal chunk: usage metadata on a clean
	// finish, an error marker on any transport or protocol failure, or a
	// cancelled marker when the signal fires mid-stream. Failures are
	// never surfaced any other way - the adapter absorbs them.
	//
	// cancel may be nil when the caller has no cancellation path.
	StreamChat(ctx context.Context, messages []Message, model string, opts *ChatOptions, cancel *CancelSignal) <-chan Chunk

	// ListModels returns the backend's model catalog. Best-effort: any
	// failure yields an empty slice, never an error.
	ListModels(ctx context.Context) []ModelInfo

	// HealthCheck reports whether the backend answers a lightweight probe.
	// Any failure, including timeout, yields false.
	HealthCheck(ctx context.Context) bool
}
