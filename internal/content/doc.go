// Package content inspects fetched page markup and response headers for
// phishing and malware delivery patterns: credential forms, suspicious
// submit targets, forced redirects, and missing security headers.
package content
