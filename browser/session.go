package browser

import (
	"context"
	"fmt"
)

// Session is the exclusive right to use the browser. The Chrome instance is
// a non-reentrant shared resource: tabs mutate global state (viewport,
// request interception) and captures assume nothing else is driving the
// page. Every layout/render request acquires the single session, does its
// work, and releases; concurrent requests queue, honoring cancellation.
type Session struct {
	m        *Manager
	released bool
}

// Acquire blocks until the capture slot is free or ctx is done.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("browser: acquire: %w", ctx.Err())
	case <-m.sess:
	}

	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		m.sess <- struct{}{}
		return nil, fmt.Errorf("browser: manager is closed")
	}

	return &Session{m: m}, nil
}

// Release returns the capture slot. Safe to call more than once.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true
	s.m.sess <- struct{}{}
}

// OpenTab opens a capture tab within this session.
func (s *Session) OpenTab(ctx context.Context, pageURL string) (*Tab, error) {
	if s.released {
		return nil, fmt.Errorf("browser: session already released")
	}
	return openTab(ctx, s.m, pageURL)
}
