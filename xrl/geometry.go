package xrl

// Pure rectangle arithmetic for layout extraction. Everything here works on
// document-coordinate CSS pixels and never touches the browser.

// minSpan is the default sliver threshold: remainder strips narrower than
// this on either axis are padding and border artifacts, not readable page
// area, and are dropped.
const minSpan = 24.0

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Area returns the rect's area, zero for empty rects.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Right and Bottom are the exclusive far edges.
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Intersect returns the overlap of r and o, empty when they are disjoint.
func (r Rect) Intersect(o Rect) Rect {
	x := max(r.X, o.X)
	y := max(r.Y, o.Y)
	x2 := min(r.Right(), o.Right())
	y2 := min(r.Bottom(), o.Bottom())
	if x2 <= x || y2 <= y {
		return Rect{}
	}
	return Rect{X: x, Y: y, W: x2 - x, H: y2 - y}
}

// Intersects reports whether r and o share area.
func (r Rect) Intersects(o Rect) bool { return !r.Intersect(o).Empty() }

// Contains reports whether o lies entirely within r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Clip returns r cut down to the bounds box. Regions reported by the
// browser can poke past the page box (negative margins, transforms); the
// layout only ever describes area inside the page.
func (r Rect) Clip(bounds Rect) Rect {
	return bounds.Intersect(r)
}

// Inset shrinks r by per-side edges, returning the content box. Collapses
// to empty when the edges consume the rect.
func (r Rect) Inset(e Edges) Rect {
	out := Rect{
		X: r.X + e.Left,
		Y: r.Y + e.Top,
		W: r.W - e.Left - e.Right,
		H: r.H - e.Top - e.Bottom,
	}
	if out.Empty() {
		return Rect{X: out.X, Y: out.Y}
	}
	return out
}

// Subtract returns the part of page not covered by any of the given rects,
// as a set of disjoint rectangles. The decomposition is the standard
// guillotine split: each covered rect slices every free rect into at most
// four bands (above, below, left, right of the overlap).
func Subtract(page Rect, covered []Rect) []Rect {
	if page.Empty() {
		return nil
	}
	free := []Rect{page}
	for _, c := range covered {
		c = c.Clip(page)
		if c.Empty() {
			continue
		}
		next := free[:0:0]
		for _, f := range free {
			next = append(next, subtractOne(f, c)...)
		}
		free = next
	}
	return free
}

func subtractOne(f, c Rect) []Rect {
	ov := f.Intersect(c)
	if ov.Empty() {
		return []Rect{f}
	}
	var out []Rect
	if ov.Y > f.Y { // band above the overlap, full width of f
		out = append(out, Rect{X: f.X, Y: f.Y, W: f.W, H: ov.Y - f.Y})
	}
	if f.Bottom() > ov.Bottom() { // band below, full width
		out = append(out, Rect{X: f.X, Y: ov.Bottom(), W: f.W, H: f.Bottom() - ov.Bottom()})
	}
	if ov.X > f.X { // left band, overlap height only
		out = append(out, Rect{X: f.X, Y: ov.Y, W: ov.X - f.X, H: ov.H})
	}
	if f.Right() > ov.Right() { // right band
		out = append(out, Rect{X: ov.Right(), Y: ov.Y, W: f.Right() - ov.Right(), H: ov.H})
	}
	return out
}

// FilterSlivers drops rects narrower than span on either axis. The
// remainder of a real page is full of 1-20px gutters between adjacent
// regions; they carry no content.
func FilterSlivers(rects []Rect, span float64) []Rect {
	out := rects[:0:0]
	for _, r := range rects {
		if r.W >= span && r.H >= span {
			out = append(out, r)
		}
	}
	return out
}
