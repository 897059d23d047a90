package chat

import "testing"

func TestCancelRegistryLifecycle(t *testing.T) {
	registry := NewCancelRegistry()

	signal := registry.Register("c1")
	if signal.Cancelled() {
		t.Error("fresh signal already cancelled")
	}
	if !registry.Active("c1") {
		t.Error("Active() = false after Register")
	}

	if !registry.Cancel("c1") {
		t.Error("Cancel() = false for registered stream")
	}
	if !signal.Cancelled() {
		t.Error("signal not fired after Cancel")
	}

	registry.Remove("c1")
	if registry.Active("c1") {
		t.Error("Active() = true after Remove")
	}
	if registry.Cancel("c1") {
		t.Error("Cancel() = true after Remove")
	}
}

func TestCancelRegistryUnknownConversation(t *testing.T) {
	registry := NewCancelRegistry()
	if registry.Cancel("never-registered") {
		t.Error("Cancel() = true for unknown conversation")
	}
}

func TestCancelRegistryReRegisterReplacesSignal(t *testing.T) {
	registry := NewCancelRegistry()

	old := registry.Register("c1")
	fresh := registry.Register("c1")
	if old == fresh {
		t.Fatal("Register returned the same signal twice")
	}

	registry.Cancel("c1")
	if old.Cancelled() {
		t.Error("stale signal fired by cancel of newer stream")
	}
	if !fresh.Cancelled() {
		t.Error("current signal not fired")
	}
}

func TestCancelRegistryRemoveIsIdempotent(t *testing.T) {
	registry := NewCancelRegistry()
	registry.Register("c1")
	registry.Remove("c1")
	registry.Remove("c1")
}
