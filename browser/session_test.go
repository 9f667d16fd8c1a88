package browser

import (
	"context"
	"testing"
	"time"
)

func TestAcquire_Serializes(t *testing.T) {
	// WHAT: a second Acquire blocks until the first session is released.
	// WHY: the Chrome instance is non-reentrant — two captures interleaving
	// on it corrupt each other's viewport and interception state.
	m := NewManager(Config{})

	s1, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	acquired := make(chan *Session)
	go func() {
		s, err := m.Acquire(context.Background())
		if err != nil {
			t.Error(err)
		}
		acquired <- s
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while first session held")
	case <-time.After(50 * time.Millisecond):
	}

	s1.Release()

	select {
	case s2 := <-acquired:
		s2.Release()
	case <-time.After(time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}

func TestAcquire_ContextCancelled(t *testing.T) {
	// WHAT: a queued Acquire returns when its context is cancelled.
	// WHY: an HTTP client that gives up must not leave a goroutine parked
	// on the session forever.
	m := NewManager(Config{})
	s, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Acquire(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	m := NewManager(Config{})
	s, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	s.Release()
	s.Release() // must not double-free the slot

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s2, err := m.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire after double release: %v", err)
	}
	s2.Release()
}

func TestAcquire_AfterClose(t *testing.T) {
	m := NewManager(Config{})
	m.Close()
	if _, err := m.Acquire(context.Background()); err == nil {
		t.Fatal("expected error acquiring on closed manager")
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("headful") != ModeHeadful {
		t.Error("headful not parsed")
	}
	if ParseMode("") != ModeHeadless || ParseMode("anything") != ModeHeadless {
		t.Error("default should be headless")
	}
}
