package llm

import "testing"

func TestChatOptionsValidate(t *testing.T) {
	intPtr := func(n int) *int { return &n }
	floatPtr := func(f float64) *float64 { return &f }

	tests := []struct {
		name    string
		opts    ChatOptions
		wantErr bool
	}{
		{"defaults", *DefaultChatOptions(), false},
		{"max temperature", ChatOptions{Temperature: 2.0}, false},
		{"temperature too high", ChatOptions{Temperature: 2.1}, true},
		{"negative temperature", ChatOptions{Temperature: -0.1}, true},
		{"valid max tokens", ChatOptions{Temperature: 1, MaxTokens: intPtr(100)}, false},
		{"zero max tokens", ChatOptions{Temperature: 1, MaxTokens: intPtr(0)}, true},
		{"valid top_p", ChatOptions{Temperature: 1, TopP: floatPtr(0.9)}, false},
		{"top_p too high", ChatOptions{Temperature: 1, TopP: floatPtr(1.5)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestErrorChunk(t *testing.T) {
	chunk := ErrorChunk("model not loaded", "streaming_error", map[string]any{MetaStatusCode: 404})

	if !chunk.Done {
		t.Error("error chunk is not terminal")
	}
	if !chunk.IsError() {
		t.Error("IsError() = false")
	}
	if chunk.IsCancelled() {
		t.Error("IsCancelled() = true for plain error")
	}
	if chunk.Content != "model not loaded" {
		t.Errorf("content = %q", chunk.Content)
	}
	if chunk.Metadata[MetaErrorType] != "streaming_error" {
		t.Errorf("error type = %v", chunk.Metadata[MetaErrorType])
	}
	if chunk.Metadata[MetaStatusCode] != 404 {
		t.Errorf("status code = %v", chunk.Metadata[MetaStatusCode])
	}
}

func TestCancelledChunk(t *testing.T) {
	chunk := CancelledChunk()
	if !chunk.Done || !chunk.IsCancelled() || chunk.IsError() {
		t.Errorf("cancelled chunk = %+v", chunk)
	}
}

func TestCancelSignal(t *testing.T) {
	signal := NewCancelSignal()
	if signal.Cancelled() {
		t.Error("new signal already fired")
	}
	signal.Set()
	signal.Set()
	if !signal.Cancelled() {
		t.Error("signal not fired after Set")
	}
}
