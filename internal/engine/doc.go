// Package engine composes the full URL analysis: structural heuristics,
// the SSRF-guarded page fetch, concurrent intelligence lookups, content
// scanning, and the final risk score.
//
// The engine degrades rather than fails: the only fatal error is an
// unusable input URL. Every external source that cannot answer is
// recorded in the report's unavailable list and excluded from scoring.
package engine
