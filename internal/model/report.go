package model

// Report is the aggregate output of one URL analysis. It is immutable once
// the engine returns it and owned by the caller.
//
// The report is always fully populated even when every intelligence source
// failed: Reasons, Technical, Intel, and Unavailable are independently
// optional, and the compositor guarantees at least one reason.
//
// Design decision: The report carries no timestamp. Given deterministic
// lookups, analyzing the same URL twice yields identical reports; callers
// that persist reports (the history store) attach their own timestamps.
type Report struct {
	// URL is the canonical normalized URL that was analyzed.
	URL string `json:"url"`

	// Scheme, Host, Path, and Query echo the normalized URL components.
	// Host is the punycode form used for lookups.
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`

	// DisplayHost is the Unicode form of Host. When it differs from Host
	// the URL uses internationalized labels.
	DisplayHost string `json:"display_host"`

	// RiskScore is the composed score clamped into [0, 100].
	RiskScore int `json:"risk_score"`

	// RiskLevel classifies RiskScore (LOW, MEDIUM, HIGH).
	RiskLevel RiskLevel `json:"risk_level"`

	// Reasons are user-facing risk explanations in discovery order.
	Reasons []string `json:"reasons"`

	// Technical holds diagnostic strings (HTTP status, redirect chains,
	// matched patterns) for users who want the evidence.
	Technical []string `json:"technical,omitempty"`

	// Intel holds one line per intelligence source consulted.
	Intel []string `json:"intel,omitempty"`

	// Unavailable lists sources that timed out or errored and therefore
	// contributed nothing to the score.
	Unavailable []string `json:"unavailable,omitempty"`
}

// NewReport creates a report pre-populated with the normalized URL fields.
// Score, level, and the evidence slices are filled in by the compositor.
func NewReport(u NormalizedURL) *Report {
	return &Report{
		URL:         u.Normalized,
		Scheme:      u.Scheme,
		Host:        u.Host,
		Path:        u.Path,
		Query:       u.Query,
		DisplayHost: u.DisplayHost,
	}
}

// AddReason appends a user-facing reason, preserving discovery order.
func (r *Report) AddReason(reason string) {
	r.Reasons = append(r.Reasons, reason)
}

// AddTechnical appends a diagnostic string.
func (r *Report) AddTechnical(detail string) {
	r.Technical = append(r.Technical, detail)
}

// AddIntel appends an intelligence source summary line.
func (r *Report) AddIntel(line string) {
	r.Intel = append(r.Intel, line)
}

// AddUnavailable records a source that produced no usable answer.
func (r *Report) AddUnavailable(source string) {
	r.Unavailable = append(r.Unavailable, source)
}
