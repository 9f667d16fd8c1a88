package xrl

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// View is the reading-layout rendition of a fetched page: the original
// markup regrouped into reading slots, with every reference absolutized so
// the fragments still resolve when served from this host.
type View struct {
	URL       string
	FinalURL  string
	Title     string
	Annotated bool
	Head      []template.HTML
	Left      []template.HTML
	Main      []template.HTML
	Right     []template.HTML
	Below     []template.HTML
}

// View fetches url over plain HTTP and rebuilds it as a reading view.
// Pages without XRL annotations get their whole body as the main slot.
func (s *Service) View(ctx context.Context, pageURL string) (*View, error) {
	if err := s.checkURL(pageURL); err != nil {
		return nil, err
	}
	res, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	base, err := url.Parse(res.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("%w: final url: %v", ErrPageLoad, err)
	}
	doc, err := html.Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrCapture, err)
	}

	absolutize(doc, base)

	v := &View{
		URL:      pageURL,
		FinalURL: res.FinalURL,
		Title:    pageTitle(doc),
	}
	s.collectSlots(v, doc)
	if !v.Annotated {
		if body := findElement(doc, "body"); body != nil {
			v.Main = append(v.Main, s.fragment(body))
		}
	}
	return v, nil
}

// Render writes the view as a standalone HTML page.
func (v *View) Render(w io.Writer) error {
	return viewTemplate.Execute(w, v)
}

// collectSlots pulls XRL-annotated elements into the view slots, in
// document order within each slot. At most one element keeps the main
// role; extra mains flow into below. Subtrees under XRL-ignore are
// skipped entirely.
func (s *Service) collectSlots(v *View, n *html.Node) {
	if n.Type == html.ElementNode {
		classes := classList(n)
		if classes["XRL-ignore"] {
			return
		}
		var slot *[]template.HTML
		switch {
		case classes["XRL-head"]:
			slot = &v.Head
		case classes["XRL-left"]:
			slot = &v.Left
		case classes["XRL-main"]:
			if len(v.Main) == 0 {
				slot = &v.Main
			} else {
				slot = &v.Below
			}
		case classes["XRL-right"]:
			slot = &v.Right
		case classes["XRL-below"]:
			slot = &v.Below
		}
		if slot != nil {
			v.Annotated = true
			*slot = append(*slot, s.fragment(n))
			return // nested annotations stay inside their parent fragment
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.collectSlots(v, c)
	}
}

// fragment serializes a node's children and sanitizes the result. The
// sanitizer strips scripts and event handlers; the reading view re-hosts
// the page's markup but never its behaviour.
func (s *Service) fragment(n *html.Node) template.HTML {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			s.logger.Debug("fragment render failed", "error", err)
			return ""
		}
	}
	// Sanitized output of a fixed policy; safe to mark as HTML.
	return template.HTML(s.sanitizer.Sanitize(buf.String())) //nolint:gosec
}

// refAttrs are attributes holding URL references that must survive
// re-hosting.
var refAttrs = map[string]bool{
	"src": true, "href": true, "poster": true, "data-src": true,
}

// absolutize rewrites relative references against base, in place.
// Microdata image references (itemprop="image" with a content attribute)
// are rewritten too since news sites lean on them for lead images.
func absolutize(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		isImageProp := false
		for _, a := range n.Attr {
			if a.Key == "itemprop" && a.Val == "image" {
				isImageProp = true
			}
		}
		for i, a := range n.Attr {
			switch {
			case refAttrs[a.Key]:
				n.Attr[i].Val = resolveRef(base, a.Val)
			case a.Key == "srcset":
				n.Attr[i].Val = resolveSrcset(base, a.Val)
			case a.Key == "content" && isImageProp:
				n.Attr[i].Val = resolveRef(base, a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		absolutize(c, base)
	}
}

func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "javascript:") || strings.HasPrefix(ref, "mailto:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// resolveSrcset rewrites each candidate URL in a srcset value, keeping the
// width/density descriptors as-is.
func resolveSrcset(base *url.URL, val string) string {
	parts := strings.Split(val, ",")
	for i, part := range parts {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		fields[0] = resolveRef(base, fields[0])
		parts[i] = strings.Join(fields, " ")
	}
	return strings.Join(parts, ", ")
}

func classList(n *html.Node) map[string]bool {
	out := map[string]bool{}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			out[c] = true
		}
	}
	return out
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func pageTitle(doc *html.Node) string {
	t := findElement(doc, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

var viewTemplate = template.Must(template.New("view").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<base href="{{.FinalURL}}">
<title>XRL View{{with .Title}} - {{.}}{{end}}</title>
<style>
body { margin: 0; font-family: system-ui, sans-serif; }
.xrl-grid { display: grid; grid-template-columns: 1fr minmax(auto, 46rem) 1fr;
  grid-template-areas: "head head head" "left main right" "below below below"; gap: 1rem; padding: 1rem; }
.xrl-head { grid-area: head; } .xrl-left { grid-area: left; }
.xrl-main { grid-area: main; } .xrl-right { grid-area: right; }
.xrl-below { grid-area: below; }
</style>
</head>
<body>
<div class="xrl-grid">
<div class="xrl-head">{{range .Head}}{{.}}{{end}}</div>
<div class="xrl-left">{{range .Left}}{{.}}{{end}}</div>
<div class="xrl-main">{{range .Main}}{{.}}{{end}}</div>
<div class="xrl-right">{{range .Right}}{{.}}{{end}}</div>
<div class="xrl-below">{{range .Below}}{{.}}{{end}}</div>
</div>
</body>
</html>
`))
