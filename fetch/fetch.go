// Package fetch implements the no-browser HTTP acquisition path used by the
// reading view: a bounded GET that validates every redirect hop and reports
// the final URL after redirects.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aaltoxr/xrld/safeweb"
)

// Result contains the outcome of a fetch.
type Result struct {
	Body        []byte
	StatusCode  int
	FinalURL    string // URL after following redirects
	ContentType string // from response header
}

// Config configures the fetcher.
type Config struct {
	Timeout  time.Duration // HTTP timeout. Default: 30s.
	MaxBytes int64         // Max response body size. Default: 10MB.
	// UserAgent sent with requests.
	UserAgent string
	// URLValidator validates URLs before fetch and on every redirect hop.
	// Default: safeweb.ValidateURL.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "xrld/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = safeweb.ValidateURL
	}
}

// Fetcher performs HTTP requests with redirect validation.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher whose redirect handler re-validates each hop, so a
// public URL cannot bounce the server into a private address.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch retrieves a URL, following up to 5 validated redirects.
// Non-2xx/3xx statuses are returned as errors with the status preserved in
// the Result.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if err := f.config.URLValidator(url); err != nil {
		return nil, fmt.Errorf("URL blocked: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	res := &Result{
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return res, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	res.Body = body
	return res, nil
}

// Resolve follows redirects for url and returns the final URL. The body is
// discarded. Used to canonicalise layout and render targets before handing
// them to the browser, mirroring the redirect pre-pass the emulator's
// clients rely on.
func (f *Fetcher) Resolve(ctx context.Context, url string) (string, error) {
	res, err := f.Fetch(ctx, url)
	if err != nil {
		if res != nil && res.FinalURL != "" {
			return res.FinalURL, err
		}
		return "", err
	}
	return res.FinalURL, nil
}
