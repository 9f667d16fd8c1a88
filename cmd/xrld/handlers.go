package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aaltoxr/xrld/imagestore"
	"github.com/aaltoxr/xrld/routestore"
	"github.com/aaltoxr/xrld/safeweb"
	"github.com/aaltoxr/xrld/shield"
	"github.com/aaltoxr/xrld/sites"
	"github.com/aaltoxr/xrld/xrl"
)

type handlers struct {
	svc    *xrl.Service
	routes *routestore.Store
	images *imagestore.Store
}

// writeCaptureError maps pipeline sentinels onto the HTTP taxonomy. Page
// load failures surface as 502 — the upstream broke, not this service.
func writeCaptureError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, xrl.ErrBadURL):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, xrl.ErrPageLoad):
		writeError(w, http.StatusBadGateway, err)
	default:
		shield.GetLogger(r.Context()).Error("capture failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func requireURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeError(w, http.StatusBadRequest, errors.New("url parameter is missing"))
		return "", false
	}
	// Bare hosts are a convenience the demo accepts.
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u, true
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// --- capture endpoints ---

func (h *handlers) layout(w http.ResponseWriter, r *http.Request) {
	u, ok := requireURL(w, r)
	if !ok {
		return
	}
	layout, err := h.svc.Layout(r.Context(), u)
	if err != nil {
		writeCaptureError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	u, ok := requireURL(w, r)
	if !ok {
		return
	}
	v, err := h.svc.View(r.Context(), u)
	if err != nil {
		writeCaptureError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := v.Render(w); err != nil {
		shield.GetLogger(r.Context()).Error("view render", "error", err)
	}
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request) {
	u, ok := requireURL(w, r)
	if !ok {
		return
	}
	result, err := h.svc.Render(r.Context(), u, xrl.RenderOptions{
		BaseURL: baseURL(r),
		PDF:     r.URL.Query().Get("format") == "pdf",
	})
	if err != nil {
		writeCaptureError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) image(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	f, err := h.images.Open(rel)
	switch {
	case errors.Is(err, safeweb.ErrPathTraversal):
		writeError(w, http.StatusBadRequest, errors.New("invalid image path"))
		return
	case errors.Is(err, os.ErrNotExist):
		writeError(w, http.StatusNotFound, errors.New("image not found"))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()
	if strings.HasSuffix(rel, ".pdf") {
		w.Header().Set("Content-Type", "application/pdf")
	} else {
		w.Header().Set("Content-Type", "image/png")
	}
	io.Copy(w, f)
}

// --- route slots ---

func (h *handlers) custom(w http.ResponseWriter, r *http.Request) {
	num, err := strconv.Atoi(chi.URLParam(r, "num"))
	if err != nil {
		writeError(w, http.StatusNotFound, errors.New("no such custom route"))
		return
	}
	if target := r.URL.Query().Get("url"); target != "" {
		slot, err := h.routes.Set(r.Context(), num, target)
		switch {
		case errors.Is(err, routestore.ErrSlotRange):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, routestore.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, err)
		case err != nil:
			writeError(w, http.StatusInternalServerError, err)
		default:
			writeJSON(w, http.StatusOK, slot)
		}
		return
	}
	slot, err := h.routes.Get(r.Context(), num)
	switch {
	case errors.Is(err, routestore.ErrSlotRange):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, slot.TargetURL, http.StatusFound)
}

func (h *handlers) routeInfo(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	type siteRef struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	var examples []siteRef
	for _, name := range sites.Names() {
		examples = append(examples, siteRef{Name: name, URL: base + "/" + name})
	}
	var custom []siteRef
	slots, err := h.routes.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, s := range slots {
		custom = append(custom, siteRef{
			Name: fmt.Sprintf("custom-%d", s.Num),
			URL:  fmt.Sprintf("%s/custom/%d", base, s.Num),
		})
	}
	writeJSON(w, http.StatusOK, map[string][]siteRef{
		"example_sites": examples,
		"custom_sites":  custom,
	})
}

// --- example sites ---

func (h *handlers) site(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if sites.IsAsset(name) {
		data, ct, err := sites.Asset(name)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		w.Header().Set("Content-Type", ct)
		w.Write(data)
		return
	}
	data, err := sites.Site(name)
	if err != nil {
		writeError(w, http.StatusNotFound, errors.New("unknown example site"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (h *handlers) favicon(w http.ResponseWriter, r *http.Request) {
	data, ct, err := sites.Asset("favicon.ico")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

// --- index ---

type indexEndpoint struct {
	Example string
	Pattern string
	Desc    string
}

type indexSite struct {
	Name    string
	Href    string
	XRLHref string
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	endpoints := []indexEndpoint{
		{"", "/", "Overview of the available routes"},
		{"info", "/{name}", "Serve an embedded example site"},
		{"custom/1", "/custom/{num}", "Redirect to the slot's configured target"},
		{"custom/1?url=https://example.org", "/custom/{num}?url=U", "Point slot {num} at a new target"},
		{"xrl?url=" + url.QueryEscape(base+"/info"), "/xrl?url=U", "Extract the XRL layout of a page as JSON"},
		{"xrl/view?url=" + url.QueryEscape(base+"/info"), "/xrl/view?url=U", "Rebuild a page as a reading view"},
		{"render?url=" + url.QueryEscape(base+"/info"), "/render?url=U", "Render page regions to images"},
		{"routes", "/routes", "JSON listing of example and custom sites"},
	}

	var examples []indexSite
	for _, name := range sites.Names() {
		examples = append(examples, indexSite{
			Name:    name,
			Href:    name,
			XRLHref: "xrl?url=" + url.QueryEscape(base+"/"+name),
		})
	}
	var custom []indexSite
	if slots, err := h.routes.List(r.Context()); err == nil {
		for _, s := range slots {
			custom = append(custom, indexSite{
				Name:    s.TargetURL,
				Href:    fmt.Sprintf("custom/%d", s.Num),
				XRLHref: "xrl?url=" + url.QueryEscape(s.TargetURL),
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, map[string]any{
		"Endpoints": endpoints,
		"Examples":  examples,
		"Custom":    custom,
	})
	if err != nil {
		shield.GetLogger(r.Context()).Error("index render", "error", err)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>XRL Demo Backend</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
code { background: #f2f2f2; padding: 0.1rem 0.3rem; }
</style>
</head>
<body>
<h1>XRL Demo Backend</h1>
<h2>Endpoints</h2>
<table>
<tr><th>Try</th><th>Pattern</th><th>Description</th></tr>
{{range .Endpoints}}<tr>
<td><a href="/{{.Example}}">/{{.Example}}</a></td>
<td><code>{{.Pattern}}</code></td>
<td>{{.Desc}}</td>
</tr>{{end}}
</table>
<h2>Example sites</h2>
<table>
<tr><th>Site</th><th>Layout</th></tr>
{{range .Examples}}<tr>
<td><a href="/{{.Href}}">{{.Name}}</a></td>
<td><a href="/{{.XRLHref}}">xrl</a></td>
</tr>{{end}}
</table>
<h2>Custom sites</h2>
<table>
<tr><th>Target</th><th>Route</th><th>Layout</th></tr>
{{range .Custom}}<tr>
<td>{{.Name}}</td>
<td><a href="/{{.Href}}">{{.Href}}</a></td>
<td><a href="/{{.XRLHref}}">xrl</a></td>
</tr>{{end}}
</table>
</body>
</html>
`))

// --- helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
