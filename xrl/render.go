package xrl

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// RenderOptions control one render pass.
type RenderOptions struct {
	// BaseURL prefixes the public image URLs in the result, e.g.
	// "http://localhost:5000". Empty yields store-relative URLs.
	BaseURL string

	// PDF additionally prints the page to a validated PDF.
	PDF bool
}

// Render captures url into a fresh render directory: one full-page
// screenshot plus one isolated screenshot per region, grouped by reading
// role. With opts.PDF set it also prints the page to PDF.
func (s *Service) Render(ctx context.Context, url string, opts RenderOptions) (*RenderResult, error) {
	if err := s.checkURL(url); err != nil {
		return nil, err
	}
	finalURL, err := s.fetcher.Resolve(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	sess, err := s.browser.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	start := time.Now()
	data, tab, err := s.extract(ctx, sess, finalURL)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	render, err := s.images.Begin()
	if err != nil {
		return nil, err
	}
	// Empty groups marshal as [], not null.
	result := &RenderResult{
		RenderID: render.ID,
		Head:     []RenderedImage{},
		Left:     []RenderedImage{},
		Main:     []RenderedImage{},
		Right:    []RenderedImage{},
		Below:    []RenderedImage{},
	}

	page := Rect{W: data.Page.W, H: data.Page.H}
	full, err := tab.ScreenshotFull(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: full page: %v", ErrCapture, err)
	}
	rel, err := render.Save("full_page.png", full)
	if err != nil {
		return nil, err
	}
	result.FullPage = RenderedImage{
		URL:    imageURL(opts.BaseURL, rel),
		Width:  page.W,
		Height: page.H,
	}

	regions, elIdx := buildRegions(data, page)
	for i := range regions {
		rg := &regions[i]
		img, err := s.shootRegion(ctx, tab, elIdx[i], rg.Box)
		if err != nil {
			// One broken region should not void the whole render.
			s.logger.Warn("region screenshot failed",
				"kind", rg.Kind, "index", rg.Index, "error", err)
			continue
		}
		name := fmt.Sprintf("%s-%d.png", rg.Kind, rg.Index)
		rel, err := render.Save(name, img)
		if err != nil {
			return nil, err
		}
		rg.ImageURL = imageURL(opts.BaseURL, rel)
		group := result.group(rg.Kind)
		*group = append(*group, RenderedImage{
			URL:    rg.ImageURL,
			Width:  rg.Box.W,
			Height: rg.Box.H,
		})
	}
	result.Regions = regions

	if opts.PDF {
		rel, err := s.printPDF(ctx, tab, render)
		if err != nil {
			return nil, err
		}
		result.PDF = imageURL(opts.BaseURL, rel)
	}

	s.logger.Info("render complete",
		"url", finalURL,
		"render_id", render.ID,
		"regions", len(regions),
		"pdf", opts.PDF,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// shootRegion isolates one captured element and clips its box. Isolation
// keeps overlapping neighbours out of the shot; visibility is restored
// before the next region.
func (s *Service) shootRegion(ctx context.Context, tab regionShooter, elIdx int, box Rect) ([]byte, error) {
	if err := tab.Eval(ctx, isolateScript, elIdx); err != nil {
		return nil, err
	}
	img, shotErr := tab.ScreenshotClip(ctx, box.X, box.Y, box.W, box.H)
	if err := tab.Eval(ctx, restoreScript); err != nil && shotErr == nil {
		return nil, err
	}
	return img, shotErr
}

// regionShooter is the slice of browser.Tab that shootRegion needs.
type regionShooter interface {
	Eval(ctx context.Context, js string, args ...interface{}) error
	ScreenshotClip(ctx context.Context, x, y, w, h float64) ([]byte, error)
}

// printPDF prints the tab, validates the bytes with pdfcpu and saves the
// file into the render directory. Invalid output is an error, not a saved
// artifact.
func (s *Service) printPDF(ctx context.Context, tab interface {
	PDF(ctx context.Context) ([]byte, error)
}, render pdfSaver) (string, error) {
	data, err := tab.PDF(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: print pdf: %v", ErrCapture, err)
	}
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("%w: pdf validation: %v", ErrCapture, err)
	}
	s.logger.Debug("pdf validated", "pages", pdfCtx.PageCount)
	return render.Save("page.pdf", data)
}

type pdfSaver interface {
	Save(name string, data []byte) (string, error)
}

func imageURL(base, rel string) string {
	return base + "/images/" + rel
}
