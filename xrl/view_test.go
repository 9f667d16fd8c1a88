package xrl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aaltoxr/xrld/browser"
	"github.com/aaltoxr/xrld/fetch"
	"github.com/aaltoxr/xrld/imagestore"
	"github.com/aaltoxr/xrld/safeweb"
)

func newViewService(t *testing.T) *Service {
	t.Helper()
	images, err := imagestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	v := safeweb.Validator{AllowPrivate: true}
	f := fetch.New(fetch.Config{URLValidator: v.Validate})
	svc, err := New(browser.NewManager(browser.Config{}), f, images, nil,
		WithURLValidator(v.Validate))
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

const annotatedPage = `<!DOCTYPE html>
<html><head><title>Campus News</title></head><body>
<header class="XRL-head"><img src="/logo.png"><h1>Site</h1></header>
<nav class="XRL-left"><a href="/about">About</a></nav>
<article class="XRL-main"><p>First main.</p><script>alert(1)</script></article>
<article class="XRL-main"><p>Second main.</p></article>
<aside class="XRL-ignore"><div class="XRL-main"><p>Hidden.</p></div></aside>
<footer class="XRL-below"><p>Footer.</p></footer>
</body></html>`

// WHAT: an annotated page lands in the right slots with main capped at one,
// ignore subtrees dropped, references absolutized and scripts stripped.
func TestView_Annotated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(annotatedPage))
	}))
	defer srv.Close()

	v, err := newViewService(t).View(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Annotated {
		t.Fatal("page should register as annotated")
	}
	if v.Title != "Campus News" {
		t.Fatalf("title = %q", v.Title)
	}
	if len(v.Head) != 1 || len(v.Left) != 1 || len(v.Main) != 1 || len(v.Below) != 2 {
		t.Fatalf("slot counts head=%d left=%d main=%d below=%d",
			len(v.Head), len(v.Left), len(v.Main), len(v.Below))
	}
	if !strings.Contains(string(v.Main[0]), "First main.") {
		t.Fatalf("main = %q", v.Main[0])
	}
	if !strings.Contains(string(v.Below[0]), "Second main.") {
		t.Fatalf("demoted main missing from below: %q", v.Below[0])
	}
	if strings.Contains(string(v.Main[0]), "alert(") {
		t.Fatal("script survived sanitization")
	}
	if !strings.Contains(string(v.Head[0]), srv.URL+"/logo.png") {
		t.Fatalf("relative src not absolutized: %q", v.Head[0])
	}
	for _, frag := range append(v.Main, v.Below...) {
		if strings.Contains(string(frag), "Hidden.") {
			t.Fatal("XRL-ignore content leaked into the view")
		}
	}
}

// WHAT: a page without annotations falls back to body-as-main.
func TestView_Unannotated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Plain</title></head><body><p>Just text.</p></body></html>`))
	}))
	defer srv.Close()

	v, err := newViewService(t).View(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if v.Annotated {
		t.Fatal("unannotated page flagged as annotated")
	}
	if len(v.Main) != 1 || !strings.Contains(string(v.Main[0]), "Just text.") {
		t.Fatalf("main = %v", v.Main)
	}
}

// WHAT: unreachable targets surface ErrPageLoad, bad URLs ErrBadURL.
// WHY: the HTTP layer maps these to 502 and 400 respectively.
func TestView_Errors(t *testing.T) {
	svc := newViewService(t)
	ctx := context.Background()
	if _, err := svc.View(ctx, "http://127.0.0.1:1/nothing-listens-here"); !errors.Is(err, ErrPageLoad) {
		t.Fatalf("unreachable: %v, want ErrPageLoad", err)
	}
	if _, err := svc.View(ctx, ""); !errors.Is(err, ErrBadURL) {
		t.Fatalf("empty url: %v, want ErrBadURL", err)
	}
	if _, err := svc.View(ctx, "ftp://example.org"); !errors.Is(err, ErrBadURL) {
		t.Fatalf("bad scheme: %v, want ErrBadURL", err)
	}
}

// WHAT: srcset candidates are rewritten individually, descriptors kept.
func TestResolveSrcset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="XRL-main">` +
			`<img srcset="/a.png 1x, /b.png 2x" src="/a.png"></div></body></html>`))
	}))
	defer srv.Close()

	v, err := newViewService(t).View(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	got := string(v.Main[0])
	if !strings.Contains(got, srv.URL+"/a.png 1x") || !strings.Contains(got, srv.URL+"/b.png 2x") {
		t.Fatalf("srcset not rewritten: %q", got)
	}
}
