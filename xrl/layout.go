package xrl

import (
	"context"
	"fmt"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/aaltoxr/xrld/browser"
)

// Layout captures url and extracts its XRL layout: regions in reading
// order plus the uncovered remainder of the page box.
func (s *Service) Layout(ctx context.Context, url string) (*Layout, error) {
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

	page := Rect{W: data.Page.W, H: data.Page.H}
	regions, elIdx := buildRegions(data, page)
	for i := range regions {
		regions[i].Markdown = s.markdown(data.Elements[elIdx[i]].HTML, finalURL)
	}

	layout := &Layout{
		URL:        url,
		FinalURL:   finalURL,
		Page:       page,
		Regions:    regions,
		Remainder:  FilterSlivers(Subtract(page, regionBoxes(regions)), s.minRemainder),
		Annotated:  data.Annotated,
		CapturedAt: time.Now().UTC(),
	}
	s.logger.Info("layout extracted",
		"url", finalURL,
		"regions", len(regions),
		"remainder", len(layout.Remainder),
		"annotated", data.Annotated,
		"duration_ms", time.Since(start).Milliseconds())
	return layout, nil
}

// extract navigates a fresh tab and runs the measurement scripts. The
// returned tab stays open so render can screenshot the same document; the
// caller owns closing it.
func (s *Service) extract(ctx context.Context, sess *browser.Session, url string) (*captureData, *browser.Tab, error) {
	tab, err := sess.OpenTab(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := tab.Eval(ctx, revealScript); err != nil {
		tab.Close()
		return nil, nil, fmt.Errorf("%w: reveal: %v", ErrCapture, err)
	}
	raw, err := tab.EvalString(ctx, extractScript)
	if err != nil {
		tab.Close()
		return nil, nil, fmt.Errorf("%w: extract: %v", ErrCapture, err)
	}
	data, err := parseCapture(raw)
	if err != nil {
		tab.Close()
		return nil, nil, err
	}
	return data, tab, nil
}

func regionBoxes(regions []Region) []Rect {
	boxes := make([]Rect, len(regions))
	for i, rg := range regions {
		boxes[i] = rg.Box
	}
	return boxes
}

func (s *Service) markdown(html, domain string) string {
	if html == "" {
		return ""
	}
	md, err := s.md.ConvertString(html, converter.WithDomain(domain))
	if err != nil {
		s.logger.Debug("markdown conversion failed", "error", err)
		return ""
	}
	return md
}
