// Package xrl turns live web pages into XRL layouts: per-element regions
// grouped by reading role, the uncovered remainder of the page box, rendered
// screenshots, and a rewritten reading view. Capture runs through a single
// shared browser session; extraction geometry is pure and tested offline.
package xrl

import "time"

// Kind is the reading role of a region, taken from the page's XRL-* class
// annotations (or inferred when a page carries none).
type Kind string

const (
	KindHead  Kind = "head"
	KindLeft  Kind = "left"
	KindMain  Kind = "main"
	KindRight Kind = "right"
	KindBelow Kind = "below"
)

// kindOrder is reading order: header, left rail, main column, right rail,
// below-the-fold. Layout regions are emitted in this order.
var kindOrder = []Kind{KindHead, KindLeft, KindMain, KindRight, KindBelow}

// Rect is an axis-aligned box in CSS pixels, document coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Edges holds per-side CSS padding of a captured element.
type Edges struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Region is one captured element: its border box, the content box with
// padding stripped, and a markdown rendition of its inner HTML for
// text-only consumers. ImageURL is set when a render produced a screenshot
// for the region.
type Region struct {
	Kind     Kind   `json:"kind"`
	Index    int    `json:"index"`
	Selector string `json:"selector"`
	Box      Rect   `json:"box"`
	Content  Rect   `json:"content"`
	Padding  Edges  `json:"padding"`
	ImageURL string `json:"image_url,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// Layout is the full extraction result for one page.
type Layout struct {
	URL        string    `json:"url"`
	FinalURL   string    `json:"final_url"`
	Page       Rect      `json:"page"`
	Regions    []Region  `json:"regions"`
	Remainder  []Rect    `json:"remainder"`
	Annotated  bool      `json:"annotated"`
	CapturedAt time.Time `json:"captured_at"`
}

// RenderedImage is one saved screenshot, addressed by its public URL.
type RenderedImage struct {
	URL    string  `json:"url"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RenderResult groups rendered images the way pages group their regions.
// The group keys mirror the XRL class names. Regions carries the full
// geometry with per-region image URLs filled in.
type RenderResult struct {
	RenderID string          `json:"render_id"`
	FullPage RenderedImage   `json:"full_page"`
	Head     []RenderedImage `json:"XRL_head"`
	Left     []RenderedImage `json:"XRL_left"`
	Main     []RenderedImage `json:"XRL_main"`
	Right    []RenderedImage `json:"XRL_right"`
	Below    []RenderedImage `json:"XRL_below"`
	Regions  []Region        `json:"regions"`
	PDF      string          `json:"pdf,omitempty"`
}

func (r *RenderResult) group(k Kind) *[]RenderedImage {
	switch k {
	case KindHead:
		return &r.Head
	case KindLeft:
		return &r.Left
	case KindMain:
		return &r.Main
	case KindRight:
		return &r.Right
	default:
		return &r.Below
	}
}
