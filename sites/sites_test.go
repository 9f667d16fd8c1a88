package sites

import (
	"sort"
	"strings"
	"testing"
)

// WHAT: Names lists the embedded sites sorted and without extensions.
// WHY: /routes and the index page promise stable ordering.
func TestNames(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("no embedded sites")
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("names not sorted: %v", names)
	}
	for _, n := range names {
		if strings.Contains(n, ".") {
			t.Fatalf("name %q carries an extension", n)
		}
	}
	for _, want := range []string{"info", "article", "legacy"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing site %q in %v", want, names)
		}
	}
}

// WHAT: every site serves and the annotated ones carry XRL classes.
func TestSite(t *testing.T) {
	for _, n := range []string{"info", "article"} {
		data, err := Site(n)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "XRL-main") {
			t.Errorf("site %q has no XRL-main region", n)
		}
	}
	data, err := Site("legacy")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "XRL-main") {
		t.Error("legacy site should be unannotated")
	}
	if _, err := Site("nope"); err == nil {
		t.Error("unknown site should error")
	}
}

// WHAT: assets serve with the right content types, nothing else does.
func TestAsset(t *testing.T) {
	for name, wantType := range map[string]string{
		"style.css":   "text/css; charset=utf-8",
		"thesis.js":   "text/javascript; charset=utf-8",
		"favicon.ico": "image/vnd.microsoft.icon",
	} {
		data, ct, err := Asset(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if ct != wantType || len(data) == 0 {
			t.Fatalf("%s: type %q, %d bytes", name, ct, len(data))
		}
	}
	if _, _, err := Asset("info.html"); err == nil {
		t.Error("html files must not be served as assets")
	}
	if IsAsset("info.html") || !IsAsset("style.css") {
		t.Error("IsAsset misclassifies")
	}
}
