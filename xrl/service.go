package xrl

import (
	"fmt"
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/aaltoxr/xrld/browser"
	"github.com/aaltoxr/xrld/fetch"
	"github.com/aaltoxr/xrld/imagestore"
	"github.com/aaltoxr/xrld/safeweb"
)

// Service orchestrates layout extraction, rendering and the reading view.
// All browser work serializes through the manager's single session.
type Service struct {
	browser      *browser.Manager
	fetcher      *fetch.Fetcher
	images       *imagestore.Store
	logger       *slog.Logger
	md           *converter.Converter
	sanitizer    *bluemonday.Policy
	urlValidator func(string) error
	minRemainder float64
}

// New creates a Service. The browser manager must already be started.
func New(b *browser.Manager, f *fetch.Fetcher, images *imagestore.Store, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if b == nil {
		return nil, fmt.Errorf("xrl: nil browser manager")
	}
	if images == nil {
		return nil, fmt.Errorf("xrl: nil image store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if f == nil {
		f = fetch.New(fetch.Config{})
	}

	svc := &Service{
		browser: b,
		fetcher: f,
		images:  images,
		logger:  logger,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		sanitizer: bluemonday.UGCPolicy().
			AllowAttrs("class").Globally().
			AllowAttrs("srcset", "loading").OnElements("img"),
		urlValidator: safeweb.ValidateURL,
		minRemainder: minSpan,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithURLValidator overrides target URL validation. The demo server allows
// private addresses so the embedded example sites on localhost can be
// captured; a public deployment would pass the strict validator.
func WithURLValidator(fn func(string) error) ServiceOption {
	return func(s *Service) { s.urlValidator = fn }
}

// WithMinRemainder overrides the sliver threshold for remainder geometry.
func WithMinRemainder(span float64) ServiceOption {
	return func(s *Service) { s.minRemainder = span }
}

func (s *Service) checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty url", ErrBadURL)
	}
	if err := s.urlValidator(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	return nil
}
