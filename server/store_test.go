package server

import (
	"testing"
	"time"
)

func TestLoginStoreConsumeSingleUse(t *testing.T) {
	store := NewLoginStore()
	id := store.NewID()
	store.Save(PendingLogin{
		ID:        id,
		Subdomain: "acme",
		State:     "state1",
		ExpiresAt: time.Now().Add(time.Minute),
	})

	p, ok := store.Consume(id)
	if !ok {
		t.Fatalf("first Consume failed")
	}
	if p.Subdomain != "acme" || p.State != "state1" {
		t.Errorf("consumed = %+v", p)
	}

	if _, ok := store.Consume(id); ok {
		t.Fatalf("second Consume succeeded; entries must be single-use")
	}
}

func TestLoginStoreConsumeUnknown(t *testing.T) {
	store := NewLoginStore()
	if _, ok := store.Consume("nope"); ok {
		t.Fatalf("Consume returned ok for unknown id")
	}
}

func TestLoginStoreConsumeExpired(t *testing.T) {
	store := NewLoginStore()
	store.Save(PendingLogin{
		ID:        "old",
		ExpiresAt: time.Now().Add(-time.Second),
	})

	if _, ok := store.Consume("old"); ok {
		t.Fatalf("Consume returned ok for expired entry")
	}
	// The expired entry is gone either way.
	if _, ok := store.Consume("old"); ok {
		t.Fatalf("expired entry survived Consume")
	}
}

func TestLoginStoreSweep(t *testing.T) {
	store := NewLoginStore()
	now := time.Now()
	store.Save(PendingLogin{ID: "live", ExpiresAt: now.Add(time.Minute)})
	store.Save(PendingLogin{ID: "dead1", ExpiresAt: now.Add(-time.Minute)})
	store.Save(PendingLogin{ID: "dead2", ExpiresAt: now.Add(-time.Second)})

	if removed := store.Sweep(now); removed != 2 {
		t.Fatalf("Sweep removed %d, want 2", removed)
	}
	if _, ok := store.Consume("live"); !ok {
		t.Fatalf("Sweep removed a live entry")
	}
}

func TestLoginStoreNewIDUnique(t *testing.T) {
	store := NewLoginStore()
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		id := store.NewID()
		if len(id) != 32 {
			t.Fatalf("id length = %d, want 32 hex chars", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
