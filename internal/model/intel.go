package model

// LookupStatus tags the outcome of a single threat-intelligence lookup.
type LookupStatus int

const (
	// StatusNotConfigured means the lookup was skipped because no API key
	// is set. This is a normal state, not an error.
	StatusNotConfigured LookupStatus = iota

	// StatusClean means the lookup ran and found nothing.
	StatusClean

	// StatusHit means the source flagged the URL.
	StatusHit

	// StatusError means the lookup failed (timeout, network, or API error).
	StatusError

	// StatusReady means a deep scan completed and its result is available.
	StatusReady

	// StatusQueued means a deep scan was submitted but is still pending.
	StatusQueued
)

// String returns a human-readable representation of the lookup status.
func (s LookupStatus) String() string {
	switch s {
	case StatusNotConfigured:
		return "not_configured"
	case StatusClean:
		return "clean"
	case StatusHit:
		return "hit"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	case StatusQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// LookupOutcome is the result of one intelligence source lookup.
type LookupOutcome struct {
	// Status tags the outcome.
	Status LookupStatus `json:"status"`

	// Detail is a human-readable one-line summary for the report's intel
	// section, always set regardless of status.
	Detail string `json:"detail"`

	// Threats lists threat labels for hits, sorted and deduplicated.
	Threats []string `json:"threats,omitempty"`

	// ResultURL links to an external result page (deep scans only).
	ResultURL string `json:"result_url,omitempty"`
}

// FeedMatchKind distinguishes how a feed matched the target.
type FeedMatchKind int

const (
	// FeedMatchURL means the full canonical URL appeared in the feed.
	// URL matches are stronger evidence than domain matches and are
	// checked first.
	FeedMatchURL FeedMatchKind = iota

	// FeedMatchDomain means only the hostname appeared in the feed.
	FeedMatchDomain
)

// String returns a human-readable representation of the match kind.
func (k FeedMatchKind) String() string {
	if k == FeedMatchDomain {
		return "domain"
	}
	return "url"
}

// FeedFinding records one blocklist feed matching the analyzed URL.
type FeedFinding struct {
	// Source is the feed name.
	Source string `json:"source"`

	// Kind is how the feed matched (url or domain).
	Kind FeedMatchKind `json:"kind"`

	// Stale is true when the match came from an expired cached snapshot,
	// which is weaker evidence than a fresh one.
	Stale bool `json:"stale"`
}

// Detail renders the finding for the report's intel section.
func (f FeedFinding) Detail() string {
	detail := f.Source + ": " + f.Kind.String() + " match"
	if f.Stale {
		detail += " (stale cache)"
	}
	return detail
}

// ContentFinding is one detected HTML pattern from the content scanner.
// Findings are derived data and are never persisted.
type ContentFinding struct {
	// Reason is the user-facing explanation.
	Reason string `json:"reason"`

	// Technical is the diagnostic string naming the matched pattern.
	Technical string `json:"technical"`

	// Score is the finding's additive contribution.
	Score int `json:"score"`
}
