package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/model"
)

// defaultDeepScanEndpoint is the urlscan.io API base.
const defaultDeepScanEndpoint = "https://urlscan.io/api/v1"

// DeepScan submits URLs to urlscan.io for sandboxed analysis. Scans run
// asynchronously on the remote side; the client polls the result once
// after a short delay and otherwise reports the scan as queued with a
// link to the pending result page.
type DeepScan struct {
	apiKey    string
	endpoint  string
	client    *http.Client
	backoff   time.Duration
	pollDelay time.Duration
	logger    *slog.Logger
}

// DeepScanOption configures a DeepScan client.
type DeepScanOption func(*DeepScan)

// WithDeepScanEndpoint overrides the API base URL.
func WithDeepScanEndpoint(endpoint string) DeepScanOption {
	return func(d *DeepScan) {
		d.endpoint = endpoint
	}
}

// WithDeepScanHTTPClient overrides the HTTP client.
func WithDeepScanHTTPClient(client *http.Client) DeepScanOption {
	return func(d *DeepScan) {
		d.client = client
	}
}

// WithDeepScanPollDelay overrides the wait before the single result poll.
func WithDeepScanPollDelay(delay time.Duration) DeepScanOption {
	return func(d *DeepScan) {
		d.pollDelay = delay
	}
}

// WithDeepScanBackoff overrides the retry backoff.
func WithDeepScanBackoff(backoff time.Duration) DeepScanOption {
	return func(d *DeepScan) {
		d.backoff = backoff
	}
}

// WithDeepScanLogger sets the logger.
func WithDeepScanLogger(logger *slog.Logger) DeepScanOption {
	return func(d *DeepScan) {
		d.logger = logger
	}
}

// NewDeepScan creates a urlscan.io client.
func NewDeepScan(apiKey string, opts ...DeepScanOption) *DeepScan {
	d := &DeepScan{
		apiKey:    apiKey,
		endpoint:  defaultDeepScanEndpoint,
		backoff:   config.DefaultRetryBackoff,
		pollDelay: config.DefaultDeepScanPollDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: config.DefaultFetchTimeout}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// submitResponse is the scan submission response.
type submitResponse struct {
	UUID   string `json:"uuid"`
	Result string `json:"result"`
}

// scanResult is the subset of a finished scan the client reads.
type scanResult struct {
	Verdicts struct {
		Overall struct {
			Score     int  `json:"score"`
			Malicious bool `json:"malicious"`
		} `json:"overall"`
	} `json:"verdicts"`
	Task struct {
		ReportURL string `json:"reportURL"`
	} `json:"task"`
}

// Scan submits the URL and polls its result once. Scans are submitted
// with private visibility so target URLs never appear in the public feed.
func (d *DeepScan) Scan(ctx context.Context, u model.NormalizedURL) model.LookupOutcome {
	if d.apiKey == "" {
		return model.LookupOutcome{
			Status: model.StatusNotConfigured,
			Detail: "urlscan.io: no API key configured",
		}
	}

	submitted, outcome := d.submit(ctx, u)
	if submitted == nil {
		return outcome
	}

	select {
	case <-ctx.Done():
		return d.queued(submitted)
	case <-time.After(d.pollDelay):
	}
	return d.poll(ctx, submitted)
}

// submit posts the scan request. A nil submitResponse means the returned
// outcome is final.
func (d *DeepScan) submit(ctx context.Context, u model.NormalizedURL) (*submitResponse, model.LookupOutcome) {
	payload, err := json.Marshal(map[string]string{
		"url":        u.Normalized,
		"visibility": "private",
	})
	if err != nil {
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: " + err.Error()}
	}

	resp, err := doWithRetry(ctx, d.client, d.backoff, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"/scan/", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("API-Key", d.apiKey)
		return req, nil
	})
	if err != nil {
		d.logger.DebugContext(ctx, "deep scan submit failed", "error", err.Error())
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: submission failed"}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to body parsing.
	case http.StatusUnauthorized:
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: API key rejected"}
	case http.StatusTooManyRequests:
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: rate limited"}
	case http.StatusBadRequest:
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: URL rejected"}
	default:
		return nil, model.LookupOutcome{
			Status: model.StatusError,
			Detail: fmt.Sprintf("urlscan.io: unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: unreadable response"}
	}
	var submitted submitResponse
	if err := json.Unmarshal(body, &submitted); err != nil {
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: malformed response"}
	}
	if _, err := uuid.Parse(submitted.UUID); err != nil {
		return nil, model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: malformed scan ID"}
	}
	return &submitted, model.LookupOutcome{}
}

// poll fetches the result once. A 404 means the scan is still running.
func (d *DeepScan) poll(ctx context.Context, submitted *submitResponse) model.LookupOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"/result/"+submitted.UUID+"/", nil)
	if err != nil {
		return d.queued(submitted)
	}
	req.Header.Set("API-Key", d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return d.queued(submitted)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return d.queued(submitted)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return d.queued(submitted)
	}
	var result scanResult
	if err := json.Unmarshal(body, &result); err != nil {
		return d.queued(submitted)
	}

	detail := fmt.Sprintf("urlscan.io: scan finished, verdict score %d", result.Verdicts.Overall.Score)
	if result.Verdicts.Overall.Malicious {
		detail = "urlscan.io: scan finished, verdict malicious"
	}
	return model.LookupOutcome{
		Status:    model.StatusReady,
		Detail:    detail,
		ResultURL: d.resultPage(submitted),
	}
}

// queued reports a submitted scan whose result is not available yet.
func (d *DeepScan) queued(submitted *submitResponse) model.LookupOutcome {
	return model.LookupOutcome{
		Status:    model.StatusQueued,
		Detail:    "urlscan.io: scan submitted, result pending",
		ResultURL: d.resultPage(submitted),
	}
}

// resultPage prefers the API-provided result link.
func (d *DeepScan) resultPage(submitted *submitResponse) string {
	if submitted.Result != "" {
		return submitted.Result
	}
	return "https://urlscan.io/result/" + submitted.UUID + "/"
}
