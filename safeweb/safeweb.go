// Package safeweb provides the URL and path safety checks used across the
// XRL backend: target-URL validation (scheme, host, private-address policy)
// and traversal guards for user-supplied file names.
package safeweb

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a user-supplied path escapes its base.
var ErrPathTraversal = errors.New("safeweb: path traversal detected")

// ErrPrivateAddress is returned when a URL targets a private or loopback
// address and the validator does not allow them.
var ErrPrivateAddress = errors.New("safeweb: URL targets a private or loopback address")

// ErrUnsafeScheme is returned when a URL uses a non-HTTP(S) scheme.
var ErrUnsafeScheme = errors.New("safeweb: only http and https schemes are allowed")

// ErrNoHost is returned when a URL has no hostname.
var ErrNoHost = errors.New("safeweb: URL has no host")

// Validator checks capture-target URLs before they reach the browser or
// the HTTP fetcher. The zero value rejects private and loopback addresses.
type Validator struct {
	// AllowPrivate permits URLs that resolve to private or loopback
	// addresses. The demo serves its own example sites on localhost, so
	// the default server configuration turns this on.
	AllowPrivate bool
}

// Validate checks that rawURL uses http/https, has a hostname, and — unless
// AllowPrivate is set — does not resolve to a private or loopback IP.
func (v Validator) Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("safeweb: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return ErrNoHost
	}
	if v.AllowPrivate {
		return nil
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrPrivateAddress
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		// DNS failure — allow through. A valid external host may be
		// temporarily unresolvable; the fetch will fail at connect time.
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivateIP(ip) {
			return ErrPrivateAddress
		}
	}
	return nil
}

// ValidateURL checks rawURL with the strict policy (private addresses
// rejected).
func ValidateURL(rawURL string) error {
	return Validator{}.Validate(rawURL)
}

// WellFormed checks only that rawURL parses as an absolute http(s) URL with
// a host. Used for custom-route targets, where any reachable public site is
// acceptable and the redirect never touches the server's own network stack.
func WellFormed(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("safeweb: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	if u.Hostname() == "" {
		return ErrNoHost
	}
	return nil
}

// SafePath validates that joining base and userInput does not escape base.
// Returns the cleaned absolute path or ErrPathTraversal.
func SafePath(base, userInput string) (string, error) {
	if strings.Contains(userInput, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+userInput))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) &&
		cleaned != filepath.Clean(base) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	return ip.IsPrivate()
}
