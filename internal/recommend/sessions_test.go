package recommend

import (
	"testing"
	"time"
)

func TestSessionStoreGetOrCreate(t *testing.T) {
	store := NewSessionStore(time.Hour, 0.5, 0.05)

	a := store.GetOrCreate("s1")
	if a.ID != "s1" {
		t.Errorf("session id = %q, want s1", a.ID)
	}

	b := store.GetOrCreate("s1")
	if a != b {
		t.Error("same id returned a different session")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSessionStoreMintsID(t *testing.T) {
	store := NewSessionStore(time.Hour, 0.5, 0.05)

	sess := store.GetOrCreate("")
	if sess.ID == "" {
		t.Fatal("expected generated session id")
	}
	if got := store.GetOrCreate(sess.ID); got != sess {
		t.Error("generated id does not round-trip")
	}
}

func TestSessionStoreEnd(t *testing.T) {
	store := NewSessionStore(time.Hour, 0.5, 0.05)

	sess := store.GetOrCreate("s1")
	sess.Skips.RecordSkip("rock", 5, 180)
	store.End("s1")

	fresh := store.GetOrCreate("s1")
	if len(fresh.Skips.Weights()) != 0 {
		t.Error("skip state survived session end")
	}
}

func TestSessionStoreTTL(t *testing.T) {
	store := NewSessionStore(time.Minute, 0.5, 0.05)

	current := time.Now()
	store.now = func() time.Time { return current }

	store.GetOrCreate("s1")
	current = current.Add(2 * time.Minute)

	if store.Len() != 0 {
		t.Error("expired session still present")
	}
}
