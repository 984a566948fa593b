package intel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/nao1215/linkguard/internal/config"
)

// requestFunc builds a fresh request for each attempt. Bodies cannot be
// replayed, so retries rebuild the request instead of reusing it.
type requestFunc func(ctx context.Context) (*http.Request, error)

// doWithRetry performs the request and retries exactly once after a fixed
// backoff when the failure looks transient: a timeout or an HTTP 429/503.
// Non-transient failures and all other statuses are returned as-is.
func doWithRetry(ctx context.Context, client *http.Client, backoff time.Duration, build requestFunc) (*http.Response, error) {
	if backoff <= 0 {
		backoff = config.DefaultRetryBackoff
	}

	resp, err := doOnce(ctx, client, build)
	if !shouldRetry(resp, err) {
		return resp, err
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(backoff):
	}
	return doOnce(ctx, client, build)
}

func doOnce(ctx context.Context, client *http.Client, build requestFunc) (*http.Response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// shouldRetry reports whether the attempt failed transiently. Only
// timeouts and the two well-known retryable statuses qualify; other
// transport errors (refused, reset, DNS) fail the lookup immediately.
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr) && netErr.Timeout()
	}
	return resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusServiceUnavailable
}
