package engine

import (
	"net/url"
	"strings"
)

// summarizeRedirects classifies a redirect chain. Crossing hosts is the
// stronger signal: phishing links routinely bounce through an innocuous
// first hop before landing on the real page. A long chain on one host
// only earns the weaker score.
func summarizeRedirects(chain []string, finalURL string) (int, string) {
	if len(chain) == 0 {
		return 0, ""
	}

	hosts := make(map[string]struct{})
	for _, hop := range chain {
		if host := hostOf(hop); host != "" {
			hosts[host] = struct{}{}
		}
	}
	if host := hostOf(finalURL); host != "" {
		hosts[host] = struct{}{}
	}

	if len(hosts) > 1 {
		return 10, "The link redirects across different websites."
	}
	if len(chain) >= 2 {
		return 5, "The link goes through multiple consecutive redirects."
	}
	return 0, ""
}

// redirectTrace renders the chain for the technical section.
func redirectTrace(chain []string, finalURL string) string {
	return "redirect chain: " + strings.Join(append(append([]string(nil), chain...), finalURL), " => ")
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
