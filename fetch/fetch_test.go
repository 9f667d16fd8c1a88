package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// allowAll lets tests use httptest servers on loopback.
func allowAll(string) error { return nil }

func TestFetch_FollowsRedirectsAndReportsFinalURL(t *testing.T) {
	// WHAT: Fetch reports the URL after redirects, not the one requested.
	// WHY: /xrl and /render canonicalise their target before rendering so
	// the layout is attributed to the real page.
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hello</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(Config{URLValidator: allowAll})
	res, err := f.Fetch(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.FinalURL != srv.URL+"/new" {
		t.Errorf("FinalURL = %q, want %q", res.FinalURL, srv.URL+"/new")
	}
	if !strings.Contains(string(res.Body), "hello") {
		t.Errorf("body = %q", res.Body)
	}
}

func TestFetch_ErrorStatusSurfaces(t *testing.T) {
	// WHAT: 404/500 from upstream become errors, with the status preserved.
	// WHY: a broken upstream must surface to the caller as a load failure
	// with the status attached, never as an empty success.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{URLValidator: allowAll})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Errorf("res = %+v", res)
	}
}

func TestFetch_ValidatorBlocks(t *testing.T) {
	f := New(Config{}) // default validator: loopback rejected
	if _, err := f.Fetch(context.Background(), "http://127.0.0.1:9/"); err == nil {
		t.Fatal("expected loopback URL to be blocked")
	}
}

func TestFetch_BodyCapped(t *testing.T) {
	// WHAT: response bodies are truncated at MaxBytes.
	// WHY: the reading view parses whatever comes back; a multi-GB page must
	// not take the process down.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	f := New(Config{MaxBytes: 1024, URLValidator: allowAll})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Body) != 1024 {
		t.Errorf("body length = %d, want 1024", len(res.Body))
	}
}

func TestResolve(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(Config{URLValidator: allowAll})
	final, err := f.Resolve(context.Background(), srv.URL+"/a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if final != srv.URL+"/b" {
		t.Errorf("final = %q", final)
	}
}
