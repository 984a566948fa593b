package intel

import (
	"bytes"
	"context"
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

// defaultSafeBrowsingEndpoint is the Google Safe Browsing v4 lookup API.
const defaultSafeBrowsingEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

// maxLookupURLLen is the longest URL submitted to the lookup API. Longer
// URLs are reported as lookup errors rather than silently truncated.
const maxLookupURLLen = 2048

// threatLabels maps API threat types to the phrasing used in reports.
var threatLabels = map[string]string{
	"MALWARE":                         "malware",
	"SOCIAL_ENGINEERING":              "social engineering (phishing)",
	"UNWANTED_SOFTWARE":               "unwanted software",
	"POTENTIALLY_HARMFUL_APPLICATION": "potentially harmful application",
}

// SafeBrowsing looks up URLs against the Google Safe Browsing v4 API.
// Outcomes are cached per canonical URL with separate success and error
// lifetimes. A zero API key degrades every lookup to not-configured.
type SafeBrowsing struct {
	apiKey   string
	endpoint string
	client   *http.Client
	backoff  time.Duration
	cache    *resultCache
	logger   *slog.Logger
}

// SafeBrowsingOption configures a SafeBrowsing client.
type SafeBrowsingOption func(*SafeBrowsing)

// WithSafeBrowsingEndpoint overrides the API endpoint.
func WithSafeBrowsingEndpoint(endpoint string) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		s.endpoint = endpoint
	}
}

// WithSafeBrowsingHTTPClient overrides the HTTP client.
func WithSafeBrowsingHTTPClient(client *http.Client) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		s.client = client
	}
}

// WithSafeBrowsingBackoff overrides the retry backoff.
func WithSafeBrowsingBackoff(d time.Duration) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		s.backoff = d
	}
}

// WithSafeBrowsingLogger sets the logger.
func WithSafeBrowsingLogger(logger *slog.Logger) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		s.logger = logger
	}
}

// NewSafeBrowsing creates a Safe Browsing client.
func NewSafeBrowsing(apiKey string, opts ...SafeBrowsingOption) *SafeBrowsing {
	s := &SafeBrowsing{
		apiKey:   apiKey,
		endpoint: defaultSafeBrowsingEndpoint,
		backoff:  config.DefaultRetryBackoff,
		cache:    newResultCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: config.DefaultFetchTimeout}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// lookupRequest is the threatMatches:find request body.
type lookupRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

// lookupResponse is the threatMatches:find response body.
type lookupResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// Lookup checks the URL against Safe Browsing. It never returns a Go
// error; failures become StatusError outcomes so the aggregator can score
// around them.
func (s *SafeBrowsing) Lookup(ctx context.Context, u model.NormalizedURL) model.LookupOutcome {
	if s.apiKey == "" {
		return model.LookupOutcome{
			Status: model.StatusNotConfigured,
			Detail: "Safe Browsing: no API key configured",
		}
	}
	if len(u.Normalized) > maxLookupURLLen {
		return model.LookupOutcome{
			Status: model.StatusError,
			Detail: "Safe Browsing: URL too long for lookup",
		}
	}

	key := u.CanonicalKey()
	if cached, ok := s.cache.get(key); ok {
		return cached
	}

	outcome := s.lookup(ctx, u)
	s.cache.put(key, outcome)
	return outcome
}

func (s *SafeBrowsing) lookup(ctx context.Context, u model.NormalizedURL) model.LookupOutcome {
	payload, err := json.Marshal(lookupRequest{
		Client: clientInfo{ClientID: "linkguard", ClientVersion: "1.0"},
		ThreatInfo: threatInfo{
			ThreatTypes: []string{
				"MALWARE",
				"SOCIAL_ENGINEERING",
				"UNWANTED_SOFTWARE",
				"POTENTIALLY_HARMFUL_APPLICATION",
			},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: u.Normalized}},
		},
	})
	if err != nil {
		return model.LookupOutcome{Status: model.StatusError, Detail: "Safe Browsing: " + err.Error()}
	}

	resp, err := doWithRetry(ctx, s.client, s.backoff, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?key="+s.apiKey, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.logger.DebugContext(ctx, "safe browsing lookup failed", "error", err.Error())
		return model.LookupOutcome{Status: model.StatusError, Detail: "Safe Browsing: lookup failed"}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to body parsing.
	case http.StatusForbidden:
		return model.LookupOutcome{Status: model.StatusError, Detail: "Safe Browsing: API key rejected"}
	case http.StatusTooManyRequests:
		return model.LookupOutcome{Status: model.StatusError, Detail: "Safe Browsing: rate limited"}
	default:
		return model.LookupOutcome{
			Status: model.StatusError,
			Detail: fmt.Sprintf("Safe Browsing: unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.LookupOutcome{Status: model.StatusError, Detail: "Safe Browsing: unreadable response"}
	}
	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.LookupOutcome{Status: model.StatusError, Detail: "Safe Browsing: malformed response"}
	}

	if len(parsed.Matches) == 0 {
		return model.LookupOutcome{Status: model.StatusClean, Detail: "Safe Browsing: no matches"}
	}

	seen := make(map[string]struct{})
	threats := make([]string, 0, len(parsed.Matches))
	for _, match := range parsed.Matches {
		label, ok := threatLabels[match.ThreatType]
		if !ok {
			label = match.ThreatType
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		threats = append(threats, label)
	}
	sort.Strings(threats)

	return model.LookupOutcome{
		Status:  model.StatusHit,
		Detail:  "Safe Browsing: flagged as " + joinThreats(threats),
		Threats: threats,
	}
}

// joinThreats renders a short threat list for the detail line.
func joinThreats(threats []string) string {
	switch len(threats) {
	case 0:
		return "unspecified threat"
	case 1:
		return threats[0]
	default:
		out := threats[0]
		for _, t := range threats[1:] {
			out += ", " + t
		}
		return out
	}
}
