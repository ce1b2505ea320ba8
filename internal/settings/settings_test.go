package settings

import "testing"

func TestStoreLoadsExistingValues(t *testing.T) {
	backend := &MemoryBackend{Values: map[string]string{
		"popup.newsletter.enabled": "true",
		"media.page_size":          "24",
	}}

	store, err := NewStore(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.GetBool("popup.newsletter.enabled", false) {
		t.Fatalf("expected popup flag to be loaded as true")
	}
	if got := store.GetInt("media.page_size", 10); got != 24 {
		t.Fatalf("expected page size 24, got %d", got)
	}
}

func TestStoreTypedFallbacks(t *testing.T) {
	backend := &MemoryBackend{Values: map[string]string{"bad.int": "nope"}}
	store, err := NewStore(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.GetInt("bad.int", 7); got != 7 {
		t.Fatalf("expected fallback for unparsable int, got %d", got)
	}
	if got := store.GetString("missing", "default"); got != "default" {
		t.Fatalf("expected fallback for missing key, got %q", got)
	}
	if store.GetBool("missing", false) {
		t.Fatalf("expected fallback false for missing bool")
	}
}

func TestStoreSetWritesThrough(t *testing.T) {
	backend := &MemoryBackend{}
	store, err := NewStore(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.SetBool("popup.newsletter.enabled", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Values["popup.newsletter.enabled"] != "true" {
		t.Fatalf("expected value persisted to backend, got %q", backend.Values["popup.newsletter.enabled"])
	}
	if !store.GetBool("popup.newsletter.enabled", false) {
		t.Fatalf("expected cached value after set")
	}
}
