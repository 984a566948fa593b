package model

import "net/http"

// FetchResult is the single outcome of one guarded fetch. Exactly one of
// the three terminal states holds: success (Status is set), BlockedReason
// (the SSRF guard or scheme check refused to issue the request), or Error
// (a transport-level failure after the request was allowed).
type FetchResult struct {
	// FinalURL is the URL of the terminal response after redirects, or the
	// last URL attempted when the fetch did not complete.
	FinalURL string `json:"final_url"`

	// Status is the terminal HTTP status code, or zero when no response
	// was received.
	Status int `json:"status,omitempty"`

	// Headers holds the terminal response headers.
	Headers http.Header `json:"headers,omitempty"`

	// BodyText is the decoded response body, empty when the body was not
	// HTML, exceeded the byte cap, or was never read.
	BodyText string `json:"-"`

	// ContentType is the terminal response Content-Type header value.
	ContentType string `json:"content_type,omitempty"`

	// RedirectChain lists the intermediate URLs visited before FinalURL,
	// in hop order.
	RedirectChain []string `json:"redirect_chain,omitempty"`

	// BlockedReason explains why the guard refused the request, if it did.
	BlockedReason string `json:"blocked_reason,omitempty"`

	// Error describes a transport failure, if one occurred.
	Error string `json:"error,omitempty"`
}

// Blocked reports whether the guard refused to issue the request.
func (r *FetchResult) Blocked() bool {
	return r.BlockedReason != ""
}

// Failed reports whether the fetch ended in a transport error.
func (r *FetchResult) Failed() bool {
	return r.Error != ""
}

// Succeeded reports whether a terminal HTTP response was received.
func (r *FetchResult) Succeeded() bool {
	return !r.Blocked() && !r.Failed()
}
