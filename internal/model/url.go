package model

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// URL normalization errors.
var (
	// ErrEmptyURL is returned when the input is empty or whitespace only.
	ErrEmptyURL = errors.New("url cannot be empty")
	// ErrInvalidURL is returned when the input cannot be parsed as a URL.
	ErrInvalidURL = errors.New("invalid url")
)

// NormalizedURL is an immutable value object representing a canonicalized URL.
// The Normalized form (scheme://host[:port]/path?query, fragment dropped) is
// the single representation used for every comparison in the engine: feed
// matching, lookup cache keys, and redirect-chain host diffing. Producing it
// in exactly one place avoids the bug class where two subsystems disagree on
// what "the same URL" means.
//
// Host carries the punycode (ASCII) form used for all lookups and equality.
// DisplayHost carries the decoded Unicode form and is only for presentation;
// when the two differ the URL uses internationalized labels, which the
// report surfaces because IDN homoglyphs are a common phishing vector.
type NormalizedURL struct {
	// Original is the raw input after trimming, with an https:// prefix
	// added when the input carried no scheme.
	Original string

	// Normalized is the canonical form: scheme://host[:port]path[?query].
	Normalized string

	// Scheme is the lowercased URL scheme.
	Scheme string

	// Host is the lowercased, punycode-encoded hostname (no port).
	Host string

	// DisplayHost is the Unicode form of Host for user-facing output.
	DisplayHost string

	// Port is the explicit port, or empty when the URL has none.
	Port string

	// Path is the URL path, "/" when the input had none. Case-sensitive.
	Path string

	// Query is the raw query string without the leading "?". Case-sensitive.
	Query string
}

// Normalize canonicalizes raw text into a NormalizedURL.
// Inputs without a scheme separator are assumed to be https.
// It returns ErrEmptyURL for blank input and ErrInvalidURL when the
// remainder cannot be parsed or has no hostname.
func Normalize(raw string) (NormalizedURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NormalizedURL{}, ErrEmptyURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return NormalizedURL{}, ErrInvalidURL
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return NormalizedURL{}, ErrInvalidURL
	}

	scheme := strings.ToLower(parsed.Scheme)
	asciiHost := toPunycode(host)
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	netloc := bracketHost(asciiHost)
	if port := parsed.Port(); port != "" {
		netloc = net.JoinHostPort(asciiHost, port)
	}

	normalized := scheme + "://" + netloc + path
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}

	return NormalizedURL{
		Original:    raw,
		Normalized:  normalized,
		Scheme:      scheme,
		Host:        asciiHost,
		DisplayHost: decodeIDN(asciiHost),
		Port:        parsed.Port(),
		Path:        path,
		Query:       parsed.RawQuery,
	}, nil
}

// IsIDN reports whether the host uses internationalized labels, i.e. the
// display form differs from the punycode form used for lookups.
func (u NormalizedURL) IsIDN() bool {
	return u.DisplayHost != u.Host
}

// CanonicalKey returns the cache/equality key for this URL.
// Feed entries and lookup caches compare lowercased keys with the
// trailing slash trimmed so that "http://a/" and "http://a" collide.
func (u NormalizedURL) CanonicalKey() string {
	return CanonicalKey(u.Normalized)
}

// CanonicalKey lowercases a normalized URL and trims the trailing slash.
// It must be applied to both sides of any URL set membership test.
func CanonicalKey(normalized string) string {
	return strings.TrimRight(strings.ToLower(normalized), "/")
}

// bracketHost restores the brackets around IPv6 literal hosts that
// url.Hostname strips; without them the rebuilt URL is unparseable.
func bracketHost(host string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

// toPunycode converts a hostname to its ASCII (punycode) form.
// Hostnames that fail conversion are returned unchanged; they will simply
// never match feed entries, which is the safe direction to fail.
func toPunycode(host string) string {
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return host
	}
	return ascii
}

// decodeIDN converts a punycode hostname to its Unicode display form.
func decodeIDN(host string) string {
	if !strings.Contains(host, "xn--") {
		return host
	}
	unicode, err := idna.Lookup.ToUnicode(host)
	if err != nil {
		return host
	}
	return unicode
}
