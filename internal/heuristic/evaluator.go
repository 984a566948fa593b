package heuristic

import (
	"net/netip"
	"net/url"
	"sort"
	"strings"

	"github.com/nao1215/linkguard/internal/model"
)

// suspiciousParams are query keys typical of open-redirect flows: a
// benign-looking URL carrying the real destination as a parameter.
var suspiciousParams = map[string]bool{
	"redirect": true,
	"url":      true,
	"next":     true,
	"continue": true,
	"return":   true,
}

// shortenerHosts are known URL shortening services. A shortener tells the
// reader nothing about the destination, which is exactly why phishing
// campaigns use them.
var shortenerHosts = map[string]bool{
	"bit.ly":      true,
	"t.co":        true,
	"tinyurl.com": true,
	"goo.gl":      true,
	"ow.ly":       true,
	"buff.ly":     true,
	"cutt.ly":     true,
	"is.gd":       true,
	"bitly.com":   true,
	"rebrand.ly":  true,
	"tiny.cc":     true,
	"t.ly":        true,
	"lc.chat":     true,
}

// Weights holds the additive score and threshold for each structural
// check. All values are policy, not correctness; DefaultWeights returns
// the shipped defaults.
type Weights struct {
	// AtSymbol scores an "@" anywhere in the original input
	// (credential-embedding obfuscation such as https://good.com@evil.com).
	AtSymbol int

	// IPHost scores a literal IP address in place of a domain.
	IPHost int

	// Shortener scores a host in the known shortener set.
	Shortener int

	// SuspiciousParams scores the presence of an open-redirect query key.
	SuspiciousParams int

	// ManySubdomains scores a host with more than MaxLabels dot-separated
	// labels.
	ManySubdomains int
	MaxLabels      int

	// LongHost scores a host longer than MaxHostLen characters.
	LongHost   int
	MaxHostLen int

	// ManyHyphens scores a host containing at least MinHyphens hyphens.
	ManyHyphens int
	MinHyphens  int

	// ManyDigits scores a host containing at least MinDigits digit
	// characters.
	ManyDigits int
	MinDigits  int

	// NotHTTPS scores any scheme other than https.
	NotHTTPS int
}

// DefaultWeights returns the shipped default weights and thresholds.
func DefaultWeights() Weights {
	return Weights{
		AtSymbol:         15,
		IPHost:           20,
		Shortener:        10,
		SuspiciousParams: 15,
		ManySubdomains:   10,
		MaxLabels:        4,
		LongHost:         10,
		MaxHostLen:       50,
		ManyHyphens:      10,
		MinHyphens:       4,
		ManyDigits:       10,
		MinDigits:        5,
		NotHTTPS:         5,
	}
}

// Evaluate scores the structure of a normalized URL. It is a pure function:
// same input, same (score, reasons). Checks fire independently and their
// scores add; no cap is applied here.
func Evaluate(u model.NormalizedURL, w Weights) (int, []string) {
	score := 0
	reasons := make([]string, 0, 4)

	if strings.Contains(u.Original, "@") {
		score += w.AtSymbol
		reasons = append(reasons, "The @ symbol in the link can hide the real destination.")
	}

	if IsIPAddress(u.Host) {
		score += w.IPHost
		reasons = append(reasons, "A raw IP address is used instead of a domain name.")
	}

	if IsShortener(u.Host) {
		score += w.Shortener
		reasons = append(reasons, "The link uses a URL shortening service.")
	}

	if hits := SuspiciousParams(u.Query); len(hits) > 0 {
		score += w.SuspiciousParams
		reasons = append(reasons, "Suspicious query parameters: "+strings.Join(hits, ", "))
	}

	labels := 0
	for _, label := range strings.Split(u.Host, ".") {
		if label != "" {
			labels++
		}
	}
	if labels > w.MaxLabels {
		score += w.ManySubdomains
		reasons = append(reasons, "The host has an unusually deep subdomain nesting.")
	}

	if len(u.Host) > w.MaxHostLen {
		score += w.LongHost
		reasons = append(reasons, "The domain name is unusually long.")
	}

	if strings.Count(u.Host, "-") >= w.MinHyphens {
		score += w.ManyHyphens
		reasons = append(reasons, "The domain contains many hyphens.")
	}

	digits := 0
	for _, ch := range u.Host {
		if ch >= '0' && ch <= '9' {
			digits++
		}
	}
	if digits >= w.MinDigits {
		score += w.ManyDigits
		reasons = append(reasons, "The domain contains many digits.")
	}

	if u.Scheme != "https" {
		score += w.NotHTTPS
		reasons = append(reasons, "The link does not use HTTPS.")
	}

	return score, reasons
}

// IsIPAddress reports whether host is a literal IPv4 or IPv6 address.
func IsIPAddress(host string) bool {
	_, err := netip.ParseAddr(host)
	return err == nil
}

// IsShortener reports whether host is a known URL shortening service.
func IsShortener(host string) bool {
	return shortenerHosts[host]
}

// SuspiciousParams returns the open-redirect query keys present in the raw
// query string, sorted and deduplicated.
func SuspiciousParams(query string) []string {
	values, err := url.ParseQuery(query)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	for key := range values {
		if suspiciousParams[strings.ToLower(key)] {
			seen[strings.ToLower(key)] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}

	hits := make([]string, 0, len(seen))
	for key := range seen {
		hits = append(hits, key)
	}
	sort.Strings(hits)
	return hits
}
