package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/linkguard/internal/model"
)

// redirectStatuses are the 30x codes whose Location header the fetcher
// follows manually.
var redirectStatuses = map[int]bool{
	http.StatusMovedPermanently:  true,
	http.StatusFound:             true,
	http.StatusSeeOther:          true,
	http.StatusTemporaryRedirect: true,
	http.StatusPermanentRedirect: true,
}

// Fetcher performs one guarded HTTP GET with manual redirect resolution.
//
// Redirects are disabled at the transport level and resolved hop by hop so
// the SSRF check runs on EVERY hop: a benign first host that 302-redirects
// to an internal address is the canonical bypass, and an automatic
// redirect-following client would walk straight into it.
//
// Design decision: We use a struct with a shared http.Client rather than
// passing the client on each call because client configuration (timeouts,
// disabled redirects) must be consistent, and tests can swap the transport.
type Fetcher struct {
	// client is the HTTP client with redirect following disabled.
	client *http.Client

	// resolver resolves hostnames; injectable for tests.
	resolver Resolver

	// userAgent is sent with every request.
	userAgent string

	// maxRedirects bounds the redirect chain.
	maxRedirects int

	// maxBodyBytes caps how much body is buffered. Bodies advertised or
	// measured above the cap are skipped entirely, never truncated.
	maxBodyBytes int64

	// timeout is the per-request timeout.
	timeout time.Duration

	// forbidden holds the address ranges the guard rejects. Operators can
	// extend the default set with their own internal ranges.
	forbidden []netip.Prefix

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxRedirects sets the redirect hop bound.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

// WithMaxBodyBytes sets the body byte cap.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithResolver sets a custom hostname resolver. Tests use this to control
// what each host resolves to without touching real DNS.
func WithResolver(r Resolver) Option {
	return func(f *Fetcher) {
		f.resolver = r
	}
}

// WithForbiddenPrefixes replaces the default forbidden address ranges.
// The default set covers loopback, RFC1918, link-local, and multicast
// space; operators with additional internal ranges can extend it.
func WithForbiddenPrefixes(prefixes []netip.Prefix) Option {
	return func(f *Fetcher) {
		f.forbidden = prefixes
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with default settings.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		resolver:     defaultResolver(),
		userAgent:    "LinkGuard/1.0 (+https://github.com/nao1215/linkguard)",
		maxRedirects: 5,
		maxBodyBytes: 200_000,
		timeout:      8 * time.Second,
		forbidden:    forbiddenNets,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	f.client = &http.Client{
		Timeout: f.timeout,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			// Redirects are resolved manually in Fetch.
			return http.ErrUseLastResponse
		},
	}

	return f
}

// Fetch performs the guarded GET. It always returns a FetchResult and
// never a Go error: blocked requests, DNS failures, and transport errors
// are all data for the compositor, not exceptional conditions.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *model.FetchResult {
	current := rawURL
	chain := make([]string, 0, f.maxRedirects)

	for hop := 0; hop <= f.maxRedirects; hop++ {
		parsed, err := url.Parse(current)
		if err != nil {
			return &model.FetchResult{
				FinalURL:      current,
				RedirectChain: chain,
				Error:         "unparseable redirect target",
			}
		}

		if blocked := f.guard(ctx, parsed); blocked != "" {
			return &model.FetchResult{
				FinalURL:      current,
				RedirectChain: chain,
				BlockedReason: blocked,
			}
		}

		resp, err := f.get(ctx, current)
		if err != nil {
			return &model.FetchResult{
				FinalURL:      current,
				RedirectChain: chain,
				Error:         describeTransportError(err),
			}
		}

		if redirectStatuses[resp.StatusCode] {
			location := resp.Header.Get("Location")
			closeBody(resp)

			if location == "" {
				// A 30x without Location is a terminal response.
				return &model.FetchResult{
					FinalURL:      current,
					Status:        resp.StatusCode,
					Headers:       resp.Header.Clone(),
					ContentType:   resp.Header.Get("Content-Type"),
					RedirectChain: chain,
				}
			}

			chain = append(chain, current)
			if hop >= f.maxRedirects {
				return &model.FetchResult{
					FinalURL:      current,
					Status:        resp.StatusCode,
					Headers:       resp.Header.Clone(),
					RedirectChain: chain,
					Error:         "too many redirects",
				}
			}

			next, err := parsed.Parse(location)
			if err != nil {
				return &model.FetchResult{
					FinalURL:      current,
					RedirectChain: chain,
					Error:         "unparseable redirect target",
				}
			}

			f.logger.Debug("following redirect",
				"from", current,
				"to", next.String(),
				"hop", hop+1,
			)
			current = next.String()
			continue
		}

		body := f.readBody(resp)
		closeBody(resp)

		return &model.FetchResult{
			FinalURL:      current,
			Status:        resp.StatusCode,
			Headers:       resp.Header.Clone(),
			BodyText:      body,
			ContentType:   resp.Header.Get("Content-Type"),
			RedirectChain: chain,
		}
	}

	// Unreachable: the loop always returns, but the compiler cannot see it.
	return &model.FetchResult{FinalURL: current, RedirectChain: chain, Error: "too many redirects"}
}

// guard applies the per-hop scheme and address checks. It returns the
// blocked reason, or empty when the request may proceed.
func (f *Fetcher) guard(ctx context.Context, u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "only http and https links are allowed"
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "URL has no host"
	}

	addrs := resolveHost(ctx, f.resolver, host)
	if len(addrs) == 0 {
		return "DNS not responding or domain does not exist"
	}
	for _, addr := range addrs {
		if isForbiddenAddr(addr, f.forbidden) {
			return fmt.Sprintf("host resolves to the private address %s", addr)
		}
	}
	return ""
}

// get issues one GET with redirects disabled.
func (f *Fetcher) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	return f.client.Do(req)
}

// readBody buffers the response body if and only if the content is HTML
// and fits under the cap. A Content-Length above the cap skips the read
// entirely; without one, reading cap+1 bytes detects oversized bodies
// without ever buffering unbounded data.
func (f *Fetcher) readBody(resp *http.Response) string {
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		return ""
	}

	if lengthHeader := resp.Header.Get("Content-Length"); lengthHeader != "" {
		if length, err := strconv.ParseInt(lengthHeader, 10, 64); err == nil && length > f.maxBodyBytes {
			return ""
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		f.logger.Debug("body read failed", "error", err)
		return ""
	}
	if int64(len(data)) > f.maxBodyBytes {
		return ""
	}
	return string(data)
}

// describeTransportError maps a transport failure to a short description.
func describeTransportError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return "request timed out"
	}
	return "request failed: " + err.Error()
}

// isTimeout reports whether the error chain contains a network timeout.
func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

// closeBody drains and closes the response body so the connection can be
// reused.
func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // Best effort drain
	_ = resp.Body.Close()                                       //nolint:errcheck // Best effort close
}
