package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab wraps a Rod page with capture-specific setup: stealth, the capture
// viewport, and resource blocking.
type Tab struct {
	Page    *rod.Page
	PageURL string
	manager *Manager
}

// openTab creates a new tab, applies the capture viewport, and navigates to
// the URL with stealth applied.
func openTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	// Fixed capture viewport. The companion VR app assumes layout boxes in
	// this coordinate space.
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             mgr.cfg.ViewportWidth,
		Height:            mgr.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}).Call(page); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}

	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{
		Page:    page,
		PageURL: pageURL,
		manager: mgr,
	}, nil
}

// EvalString runs a JS function on the page and returns its string result.
// Capture scripts return JSON.stringify'd payloads through this.
func (t *Tab) EvalString(ctx context.Context, js string) (string, error) {
	res, err := t.Page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.Str(), nil
}

// Eval runs a JS function for its side effects. Extra args are passed as
// the function's parameters.
func (t *Tab) Eval(ctx context.Context, js string, args ...interface{}) error {
	_, err := t.Page.Context(ctx).Eval(js, args...)
	if err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	return nil
}

// ScreenshotClip captures the given page-coordinate rectangle as PNG.
func (t *Tab) ScreenshotClip(ctx context.Context, x, y, w, h float64) ([]byte, error) {
	data, err := t.Page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      x,
			Y:      y,
			Width:  w,
			Height: h,
			Scale:  1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("browser: clip screenshot: %w", err)
	}
	return data, nil
}

// ScreenshotFull captures the full page as PNG.
func (t *Tab) ScreenshotFull(ctx context.Context) ([]byte, error) {
	data, err := t.Page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: full screenshot: %w", err)
	}
	return data, nil
}

// PDF prints the page to PDF and returns the raw bytes.
func (t *Tab) PDF(ctx context.Context) ([]byte, error) {
	res, err := proto.PagePrintToPDF{
		PrintBackground: true,
	}.Call(t.Page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("browser: print to pdf: %w", err)
	}
	return res.Data, nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
