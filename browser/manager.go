// Package browser manages the Chrome headless instance behind the capture
// endpoints: launch or remote-connect via Rod, monitor memory, recycle on
// threshold or interval, and hand out the page session that serializes all
// capture work.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Mode controls how Chrome runs.
type Mode int

const (
	ModeHeadless Mode = iota // Rod headless + stealth (default)
	ModeHeadful              // Rod headful + Xvfb
)

// ParseMode maps a config string to a Mode. Unknown values fall back to
// headless.
func ParseMode(s string) Mode {
	if s == "headful" {
		return ModeHeadful
	}
	return ModeHeadless
}

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// MemoryLimit in bytes. Recycle Chrome when exceeded. Default: 1GB.
	MemoryLimit int64

	// RecycleInterval is the maximum lifetime of a Chrome process. Default: 4h.
	RecycleInterval time.Duration

	// ResourceBlocking lists resource types to block (fonts, media).
	ResourceBlocking []string

	// ViewportWidth/ViewportHeight set the capture viewport on every tab.
	// Defaults: 2000 x 6000.
	ViewportWidth  int
	ViewportHeight int

	// NavTimeout bounds page navigation + load. Default: 30s.
	NavTimeout time.Duration

	// Mode sets headless or headful operation. Default: ModeHeadless.
	Mode Mode

	// XvfbDisplay for headful mode. Default: ":99".
	XvfbDisplay string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = 1 << 30 // 1GB
	}
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 2000
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 6000
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager manages the Chrome lifecycle and the capture session.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	startAt time.Time
	closed  bool
	sess    chan struct{} // capacity 1 — the single capture slot
}

// NewManager creates a browser Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	m := &Manager{cfg: cfg, sess: make(chan struct{}, 1)}
	m.sess <- struct{}{}
	return m
}

// Start launches Chrome (or connects to a remote instance) and starts the
// memory monitor goroutine.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}

	b, err := m.launch()
	if err != nil {
		return err
	}
	m.browser = b
	m.startAt = time.Now()

	go m.monitorLoop(ctx)

	return nil
}

// Browser returns the current Rod browser handle. Thread-safe.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Recycle kills Chrome and restarts it. Callers holding a Session keep it;
// their tab is gone, so Recycle must only run between captures (the monitor
// takes the session slot before recycling).
func (m *Manager) Recycle() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}

	return m.recycleLocked()
}

// Close shuts down Chrome and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger

	if m.cfg.Mode == ModeHeadful {
		if err := m.startXvfb(); err != nil {
			return nil, fmt.Errorf("browser: xvfb: %w", err)
		}
	}

	var wsURL string

	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New()

		if m.cfg.Mode == ModeHeadful {
			l = l.Headless(false).Env("DISPLAY", m.cfg.XvfbDisplay)
		} else {
			l = l.Headless(true)
		}

		// Anti-detection flags.
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "mode", m.cfg.Mode)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	// Ignore certificate errors for dev/testing.
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}

	return b, nil
}

func (m *Manager) recycleLocked() error {
	log := m.cfg.Logger
	log.Info("browser: recycling", "uptime", time.Since(m.startAt))

	if err := m.cleanup(); err != nil {
		log.Warn("browser: cleanup during recycle", "error", err)
	}

	b, err := m.launch()
	if err != nil {
		return fmt.Errorf("browser: relaunch: %w", err)
	}
	m.browser = b
	m.startAt = time.Now()

	log.Info("browser: recycled successfully")
	return nil
}

func (m *Manager) cleanup() error {
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
	return nil
}

func (m *Manager) monitorLoop(ctx context.Context) {
	log := m.cfg.Logger
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			if m.closed || m.browser == nil {
				m.mu.RUnlock()
				return
			}
			startAt := m.startAt
			b := m.browser
			m.mu.RUnlock()

			recycle := false
			if time.Since(startAt) > m.cfg.RecycleInterval {
				log.Info("browser: recycle interval reached")
				recycle = true
			} else if used, err := jsHeapUsage(b); err == nil && used > m.cfg.MemoryLimit {
				log.Info("browser: memory limit exceeded",
					"used", used, "limit", m.cfg.MemoryLimit)
				recycle = true
			}

			if recycle {
				// Wait for any in-flight capture to finish before killing
				// its tab out from under it.
				if err := m.recycleWithSession(ctx); err != nil {
					log.Error("browser: recycle failed", "error", err)
				}
			}
		}
	}
}

func (m *Manager) recycleWithSession(ctx context.Context) error {
	s, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release()
	return m.Recycle()
}

// jsHeapUsage queries Chrome's JS heap via the first page's context as a
// proxy for overall memory pressure.
func jsHeapUsage(b *rod.Browser) (int64, error) {
	pages, err := b.Pages()
	if err != nil || len(pages) == 0 {
		return 0, fmt.Errorf("no pages for heap check")
	}

	res, err := pages[0].Eval(`() => {
		if (performance.memory) {
			return performance.memory.usedJSHeapSize;
		}
		return 0;
	}`)
	if err != nil {
		return 0, err
	}

	return int64(res.Value.Int()), nil
}
