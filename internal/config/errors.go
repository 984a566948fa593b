package config

import "errors"

// Configuration validation errors.
// These are package-level sentinel errors so callers can use errors.Is()
// for programmatic handling while still getting human-readable messages.
var (
	// ErrNoTarget is returned when no URL was given to analyze.
	ErrNoTarget = errors.New("no target specified: provide a URL to check")

	// ErrInvalidTimeout is returned when a timeout is zero or negative.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRedirectBound is returned when the redirect bound is negative.
	ErrInvalidRedirectBound = errors.New("invalid redirect bound: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body cap is negative.
	// Use 0 to disable body capture entirely.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
