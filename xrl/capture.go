package xrl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// maxRegionHTML caps the inner HTML carried per element for the markdown
// fallback. Giant regions get truncated markdown, not a giant payload.
const maxRegionHTML = 64 * 1024

// revealScript normalizes the page before measurement: any scaling or
// width clamp applied by the site's own presentation layer is removed, and
// XRL-annotated elements hidden for the live demo are made measurable.
const revealScript = `() => {
	document.body.style.transform = "none";
	document.body.style.zoom = "1";
	for (const el of document.querySelectorAll(".XRL-container")) {
		el.style.maxWidth = "none";
	}
	for (const el of document.querySelectorAll("[class*='XRL-']")) {
		const cs = getComputedStyle(el);
		if (cs.display === "none") el.style.display = "block";
		if (cs.visibility === "hidden") el.style.visibility = "visible";
	}
}`

// extractScript measures the page inside the browser and returns a JSON
// string. Elements carrying XRL-head/left/main/right/below classes are
// captured in document coordinates along with their computed padding; when
// a page carries no annotations at all, visible top-level blocks under
// <body> are captured as main regions instead. The matched elements are
// stashed on window.__xrlEls so isolateScript can address them by index.
// Built at init because the HTML cap is interpolated in.
var extractScript = `() => {
	const kinds = [
		["head", ".XRL-head"],
		["left", ".XRL-left"],
		["main", ".XRL-main"],
		["right", ".XRL-right"],
		["below", ".XRL-below"],
	];
	const sx = window.scrollX, sy = window.scrollY;
	const visible = (el) => {
		const cs = getComputedStyle(el);
		if (cs.display === "none" || cs.visibility === "hidden") return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	const selectorOf = (el) => {
		let s = el.tagName.toLowerCase();
		if (el.id) return s + "#" + el.id;
		const cls = [...el.classList].find((c) => !c.startsWith("XRL-"));
		if (cls) s += "." + cls;
		return s;
	};
	const measure = (el, kind) => {
		const r = el.getBoundingClientRect();
		const cs = getComputedStyle(el);
		return {
			kind: kind,
			selector: selectorOf(el),
			x: r.x + sx, y: r.y + sy, w: r.width, h: r.height,
			padding: {
				top: parseFloat(cs.paddingTop) || 0,
				right: parseFloat(cs.paddingRight) || 0,
				bottom: parseFloat(cs.paddingBottom) || 0,
				left: parseFloat(cs.paddingLeft) || 0,
			},
			html: el.innerHTML.slice(0, ` + strconv.Itoa(maxRegionHTML) + `),
		};
	};
	const els = [];
	const out = [];
	for (const [kind, sel] of kinds) {
		for (const el of document.querySelectorAll(sel)) {
			if (!visible(el) || el.closest(".XRL-ignore")) continue;
			els.push(el);
			out.push(measure(el, kind));
		}
	}
	let annotated = out.length > 0;
	if (!annotated) {
		for (const el of document.body.children) {
			if (!visible(el)) continue;
			const tag = el.tagName.toLowerCase();
			if (tag === "script" || tag === "style" || tag === "link") continue;
			els.push(el);
			out.push(measure(el, "main"));
		}
	}
	window.__xrlEls = els;
	return JSON.stringify({
		page: {
			w: Math.max(document.body.scrollWidth, document.documentElement.scrollWidth),
			h: Math.max(document.body.scrollHeight, document.documentElement.scrollHeight),
		},
		annotated: annotated,
		elements: out,
	});
}`

// isolateScript hides every captured element except index i, so a clip
// screenshot of an overlapped region shows only that region. restoreScript
// undoes it. Both assume extractScript ran first on the same tab.
const isolateScript = `(i) => {
	const els = window.__xrlEls || [];
	els.forEach((el, j) => {
		el.style.visibility = j === i ? "visible" : "hidden";
	});
}`

const restoreScript = `() => {
	for (const el of window.__xrlEls || []) {
		el.style.visibility = "";
	}
}`

type capturedElement struct {
	Kind     string  `json:"kind"`
	Selector string  `json:"selector"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Padding  Edges   `json:"padding"`
	HTML     string  `json:"html"`
}

type captureData struct {
	Page struct {
		W float64 `json:"w"`
		H float64 `json:"h"`
	} `json:"page"`
	Annotated bool              `json:"annotated"`
	Elements  []capturedElement `json:"elements"`
}

func parseCapture(raw string) (*captureData, error) {
	var data captureData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: decode extraction: %v", ErrCapture, err)
	}
	if data.Page.W <= 0 || data.Page.H <= 0 {
		return nil, fmt.Errorf("%w: page box %vx%v", ErrCapture, data.Page.W, data.Page.H)
	}
	return &data, nil
}

// buildRegions turns raw measurements into ordered regions. Boxes are
// clipped to the page, empty results dropped, and at most one region keeps
// the main role — a page sporting several XRL-main elements gets the first
// as main and the rest demoted to below, matching reading order.
// The returned indices map each region back to its window.__xrlEls slot.
func buildRegions(data *captureData, page Rect) ([]Region, []int) {
	type cand struct {
		region Region
		elIdx  int
	}
	var cands []cand
	mainSeen := false
	for i, el := range data.Elements {
		box := Rect{X: el.X, Y: el.Y, W: el.W, H: el.H}.Clip(page)
		if box.Empty() {
			continue
		}
		kind := Kind(el.Kind)
		if kind == KindMain {
			if mainSeen {
				kind = KindBelow
			}
			mainSeen = true
		}
		content := box.Inset(el.Padding)
		if content.Empty() {
			content = box
		}
		cands = append(cands, cand{
			region: Region{
				Kind:     kind,
				Selector: el.Selector,
				Box:      box,
				Content:  content,
				Padding:  el.Padding,
			},
			elIdx: i,
		})
	}

	rank := func(k Kind) int {
		for i, o := range kindOrder {
			if o == k {
				return i
			}
		}
		return len(kindOrder)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		ri, rj := rank(cands[i].region.Kind), rank(cands[j].region.Kind)
		if ri != rj {
			return ri < rj
		}
		return cands[i].region.Box.Y < cands[j].region.Box.Y
	})

	regions := make([]Region, len(cands))
	elIdx := make([]int, len(cands))
	counts := map[Kind]int{}
	for i, c := range cands {
		c.region.Index = counts[c.region.Kind]
		counts[c.region.Kind]++
		regions[i] = c.region
		elIdx[i] = c.elIdx
	}
	return regions, elIdx
}
