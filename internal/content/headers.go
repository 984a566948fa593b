package content

import "net/http"

// securityHeaders are the response headers whose absence weakens a site
// against script injection and clickjacking. Order here is the order
// missing headers are reported in.
var securityHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
}

// MissingSecurityHeaders returns the well-known security headers absent
// from the response, in reporting order.
func MissingSecurityHeaders(headers http.Header) []string {
	var missing []string
	for _, name := range securityHeaders {
		if headers.Get(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
