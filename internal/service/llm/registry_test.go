package llm

import (
	"context"
	"reflect"
	"testing"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) StreamChat(ctx context.Context, messages []Message, model string, opts *ChatOptions, cancel *CancelSignal) <-chan Chunk {
	out := make(chan Chunk)
	close(out)
	return out
}
func (s *stubProvider) ListModels(ctx context.Context) []ModelInfo { return nil }
func (s *stubProvider) HealthCheck(ctx context.Context) bool       { return true }

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	if _, ok := registry.Get("ollama"); ok {
		t.Error("Get() found a provider in an empty registry")
	}

	provider := &stubProvider{name: "ollama"}
	registry.Register(provider)

	got, ok := registry.Get("ollama")
	if !ok || got != provider {
		t.Errorf("Get() = %v, %v", got, ok)
	}
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	registry := NewRegistry()
	first := &stubProvider{name: "ollama"}
	second := &stubProvider{name: "ollama"}

	registry.Register(first)
	registry.Register(second)

	got, _ := registry.Get("ollama")
	if got != second {
		t.Error("Get() returned the earlier registration")
	}
	if names := registry.List(); len(names) != 1 {
		t.Errorf("List() = %v, want one entry", names)
	}
}

func TestRegistryListSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		registry.Register(&stubProvider{name: name})
	}

	want := []string{"alpha", "mid", "zeta"}
	if got := registry.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}
