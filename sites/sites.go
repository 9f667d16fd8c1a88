// Package sites serves the embedded example pages used to demo layout
// extraction. Each page annotates its content with XRL-* classes; the
// shared stylesheet and script give them a common look and the palette
// shuffle used in live demos. Immutable at runtime.
package sites

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed examples
var content embed.FS

// assetTypes are the non-HTML files served alongside the example sites.
var assetTypes = map[string]string{
	"style.css":   "text/css; charset=utf-8",
	"thesis.js":   "text/javascript; charset=utf-8",
	"favicon.ico": "image/vnd.microsoft.icon",
}

// Names returns the example site names, sorted.
func Names() []string {
	entries, err := fs.ReadDir(content, "examples")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".html"); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Site returns the HTML of a named example site.
func Site(name string) ([]byte, error) {
	data, err := content.ReadFile("examples/" + name + ".html")
	if err != nil {
		return nil, fmt.Errorf("sites: unknown site %q: %w", name, err)
	}
	return data, nil
}

// Asset returns a static asset and its content type. Only the fixed asset
// set is served; everything else is unknown.
func Asset(name string) ([]byte, string, error) {
	ct, ok := assetTypes[name]
	if !ok {
		return nil, "", fmt.Errorf("sites: unknown asset %q: %w", name, fs.ErrNotExist)
	}
	data, err := content.ReadFile("examples/" + name)
	if err != nil {
		return nil, "", fmt.Errorf("sites: asset %q: %w", name, err)
	}
	return data, ct, nil
}

// IsAsset reports whether name is one of the served static assets.
func IsAsset(name string) bool {
	_, ok := assetTypes[name]
	return ok
}
