package safeweb

import (
	"errors"
	"testing"
)

func TestValidate_RejectsNonHTTPSchemes(t *testing.T) {
	// WHAT: file://, ftp://, javascript: URLs are rejected.
	// WHY: the browser would happily open file:// and leak local content.
	for _, u := range []string{"file:///etc/passwd", "ftp://example.com/x", "javascript:alert(1)"} {
		if err := ValidateURL(u); !errors.Is(err, ErrUnsafeScheme) {
			t.Errorf("%s: expected ErrUnsafeScheme, got %v", u, err)
		}
	}
}

func TestValidate_RejectsLoopbackByDefault(t *testing.T) {
	// WHAT: loopback literals are rejected when AllowPrivate is off.
	// WHY: SSRF — a capture URL must not reach internal services.
	for _, u := range []string{"http://127.0.0.1/", "http://127.0.0.1:8080/admin", "http://[::1]/"} {
		if err := ValidateURL(u); !errors.Is(err, ErrPrivateAddress) {
			t.Errorf("%s: expected ErrPrivateAddress, got %v", u, err)
		}
	}
}

func TestValidate_AllowPrivatePermitsLoopback(t *testing.T) {
	// WHAT: AllowPrivate lets loopback URLs through.
	// WHY: the demo captures its own example sites served on localhost.
	v := Validator{AllowPrivate: true}
	if err := v.Validate("http://127.0.0.1:5000/info"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidate_RejectsPrivateRanges(t *testing.T) {
	for _, u := range []string{"http://10.0.0.5/", "http://192.168.1.1/", "http://169.254.169.254/latest/meta-data"} {
		if err := ValidateURL(u); !errors.Is(err, ErrPrivateAddress) {
			t.Errorf("%s: expected ErrPrivateAddress, got %v", u, err)
		}
	}
}

func TestValidate_NoHost(t *testing.T) {
	if err := ValidateURL("http:///path-only"); !errors.Is(err, ErrNoHost) {
		t.Errorf("expected ErrNoHost, got %v", err)
	}
}

func TestWellFormed(t *testing.T) {
	// WHAT: WellFormed accepts any absolute http(s) URL, including private hosts.
	// WHY: custom-route targets only need to be parseable — the server never
	// fetches them, it issues a redirect.
	if err := wellFormedAll("https://www.aalto.fi", "http://192.168.0.1/intranet"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := WellFormed("not a url at all\x00"); err == nil {
		t.Error("expected error for garbage input")
	}
	if err := WellFormed("/relative/only"); !errors.Is(err, ErrUnsafeScheme) {
		t.Errorf("expected ErrUnsafeScheme for relative URL, got %v", err)
	}
}

func wellFormedAll(urls ...string) error {
	for _, u := range urls {
		if err := WellFormed(u); err != nil {
			return err
		}
	}
	return nil
}

func TestSafePath(t *testing.T) {
	// WHAT: traversal sequences are rejected; clean names resolve under base.
	// WHY: /images/{name} must never serve files outside the images dir.
	if _, err := SafePath("/data/images", "../../etc/passwd"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("expected ErrPathTraversal, got %v", err)
	}
	p, err := SafePath("/data/images", "abc123/XRL_head-0.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != "/data/images/abc123/XRL_head-0.png" {
		t.Errorf("unexpected path: %s", p)
	}
}
