package intel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/model"
)

// defaultReputationEndpoint is the VirusTotal v3 API base.
const defaultReputationEndpoint = "https://www.virustotal.com/api/v3"

// Reputation looks up URLs in the VirusTotal v3 API. The lookup is
// read-only: it asks for the existing analysis of a URL and never submits
// the URL for scanning.
type Reputation struct {
	apiKey   string
	endpoint string
	client   *http.Client
	backoff  time.Duration
	cache    *resultCache
	logger   *slog.Logger
}

// ReputationOption configures a Reputation client.
type ReputationOption func(*Reputation)

// WithReputationEndpoint overrides the API base URL.
func WithReputationEndpoint(endpoint string) ReputationOption {
	return func(r *Reputation) {
		r.endpoint = endpoint
	}
}

// WithReputationHTTPClient overrides the HTTP client.
func WithReputationHTTPClient(client *http.Client) ReputationOption {
	return func(r *Reputation) {
		r.client = client
	}
}

// WithReputationBackoff overrides the retry backoff.
func WithReputationBackoff(d time.Duration) ReputationOption {
	return func(r *Reputation) {
		r.backoff = d
	}
}

// WithReputationLogger sets the logger.
func WithReputationLogger(logger *slog.Logger) ReputationOption {
	return func(r *Reputation) {
		r.logger = logger
	}
}

// NewReputation creates a VirusTotal client.
func NewReputation(apiKey string, opts ...ReputationOption) *Reputation {
	r := &Reputation{
		apiKey:   apiKey,
		endpoint: defaultReputationEndpoint,
		backoff:  config.DefaultRetryBackoff,
		cache:    newResultCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: config.DefaultFetchTimeout}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// urlReport is the subset of the VirusTotal URL object the lookup reads.
type urlReport struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"last_analysis_stats"`
			Categories map[string]string `json:"categories"`
			Tags       []string          `json:"tags"`
		} `json:"attributes"`
	} `json:"data"`
}

// Lookup asks VirusTotal for the URL's existing analysis. Failures become
// StatusError outcomes, never Go errors.
func (r *Reputation) Lookup(ctx context.Context, u model.NormalizedURL) model.LookupOutcome {
	if r.apiKey == "" {
		return model.LookupOutcome{
			Status: model.StatusNotConfigured,
			Detail: "VirusTotal: no API key configured",
		}
	}

	key := u.CanonicalKey()
	if cached, ok := r.cache.get(key); ok {
		return cached
	}

	outcome := r.lookup(ctx, u)
	r.cache.put(key, outcome)
	return outcome
}

func (r *Reputation) lookup(ctx context.Context, u model.NormalizedURL) model.LookupOutcome {
	// VirusTotal identifies URLs by the unpadded URL-safe base64 of the URL.
	id := base64.RawURLEncoding.EncodeToString([]byte(u.Normalized))

	resp, err := doWithRetry(ctx, r.client, r.backoff, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/urls/"+id, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-apikey", r.apiKey)
		return req, nil
	})
	if err != nil {
		r.logger.DebugContext(ctx, "reputation lookup failed", "error", err.Error())
		return model.LookupOutcome{Status: model.StatusError, Detail: "VirusTotal: lookup failed"}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to body parsing.
	case http.StatusNotFound:
		return model.LookupOutcome{Status: model.StatusClean, Detail: "VirusTotal: URL not yet analyzed"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.LookupOutcome{Status: model.StatusError, Detail: "VirusTotal: API key rejected"}
	case http.StatusTooManyRequests:
		return model.LookupOutcome{Status: model.StatusError, Detail: "VirusTotal: rate limited"}
	default:
		return model.LookupOutcome{
			Status: model.StatusError,
			Detail: fmt.Sprintf("VirusTotal: unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.LookupOutcome{Status: model.StatusError, Detail: "VirusTotal: unreadable response"}
	}
	var report urlReport
	if err := json.Unmarshal(body, &report); err != nil {
		return model.LookupOutcome{Status: model.StatusError, Detail: "VirusTotal: malformed response"}
	}

	stats := report.Data.Attributes.LastAnalysisStats
	total := stats.Malicious + stats.Suspicious + stats.Harmless + stats.Undetected
	if stats.Malicious == 0 {
		detail := fmt.Sprintf("VirusTotal: 0/%d engines flagged the URL", total)
		if stats.Suspicious > 0 {
			detail = fmt.Sprintf("VirusTotal: %d engines rated the URL suspicious", stats.Suspicious)
		}
		return model.LookupOutcome{Status: model.StatusClean, Detail: detail}
	}

	detail := fmt.Sprintf("VirusTotal: %d/%d engines flagged the URL malicious", stats.Malicious, total)
	if stats.Suspicious > 0 {
		detail += fmt.Sprintf(" (%d suspicious)", stats.Suspicious)
	}

	threats := topCategories(report.Data.Attributes.Categories, 3)
	threats = append(threats, topTags(report.Data.Attributes.Tags, 4)...)

	return model.LookupOutcome{
		Status:  model.StatusHit,
		Detail:  detail,
		Threats: threats,
	}
}

// topCategories returns up to n distinct category values, sorted for
// stable output.
func topCategories(categories map[string]string, n int) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0, len(categories))
	for _, v := range categories {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	if len(values) > n {
		values = values[:n]
	}
	return values
}

// topTags returns up to n tags in feed order.
func topTags(tags []string, n int) []string {
	if len(tags) > n {
		tags = tags[:n]
	}
	return append([]string(nil), tags...)
}
