package intel

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/model"
)

// FeedChecker matches a URL against cached blocklist feeds.
type FeedChecker interface {
	Check(ctx context.Context, u model.NormalizedURL) []model.FeedFinding
}

// Lookuper is a single threat-intelligence lookup.
type Lookuper interface {
	Lookup(ctx context.Context, u model.NormalizedURL) model.LookupOutcome
}

// Scanner submits a URL for remote sandboxed analysis.
type Scanner interface {
	Scan(ctx context.Context, u model.NormalizedURL) model.LookupOutcome
}

// Result is the fan-in of all concurrent lookups for one URL.
type Result struct {
	// FeedFindings lists blocklist matches. Empty means no feed listed
	// the URL (or no feed could be consulted).
	FeedFindings []model.FeedFinding

	// FeedsConsulted is true when the feed check ran to completion, so an
	// empty FeedFindings means "checked, clean" rather than "not checked".
	FeedsConsulted bool

	// FeedTimedOut is true when the feed check missed its deadline.
	FeedTimedOut bool

	// SafeBrowsing is the Safe Browsing outcome.
	SafeBrowsing model.LookupOutcome

	// Reputation is the VirusTotal outcome.
	Reputation model.LookupOutcome
}

// Aggregator runs all intelligence lookups for a URL concurrently. Each
// lookup gets its own deadline; one slow or failing source never delays
// or cancels the others. The deep scan is not part of the fan-out: it is
// slow and conditional, so callers invoke it separately after scoring.
type Aggregator struct {
	feeds        FeedChecker
	safeBrowsing Lookuper
	reputation   Lookuper
	deepScan     Scanner
	timeout      time.Duration
	logger       *slog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLookupTimeout overrides the per-lookup deadline.
func WithLookupTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

// WithAggregatorLogger sets the logger.
func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an aggregator over the given sources. Any source
// may be nil; nil sources report not-configured outcomes.
func NewAggregator(feeds FeedChecker, safeBrowsing, reputation Lookuper, deepScan Scanner, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		feeds:        feeds,
		safeBrowsing: safeBrowsing,
		reputation:   reputation,
		deepScan:     deepScan,
		timeout:      config.DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Lookup fans out the feed check, Safe Browsing, and VirusTotal lookups
// and waits for all of them. The returned error is always nil today; the
// signature leaves room for a caller-cancelled context.
func (a *Aggregator) Lookup(ctx context.Context, u model.NormalizedURL) (*Result, error) {
	result := &Result{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if a.feeds == nil {
			return nil
		}
		findings, ok := a.bounded(ctx, func(lctx context.Context) any {
			return a.feeds.Check(lctx, u)
		})
		if !ok {
			result.FeedTimedOut = true
			a.logger.WarnContext(ctx, "feed check timed out", "host", u.Host)
			return nil
		}
		result.FeedFindings = findings.([]model.FeedFinding)
		result.FeedsConsulted = true
		return nil
	})

	g.Go(func() error {
		result.SafeBrowsing = a.boundedLookup(ctx, a.safeBrowsing, u, "Safe Browsing")
		return nil
	})

	g.Go(func() error {
		result.Reputation = a.boundedLookup(ctx, a.reputation, u, "VirusTotal")
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Scan runs the deep scan under the lookup deadline. It is separate from
// Lookup because the deep scan only runs when requested or when the
// preliminary score is already high.
func (a *Aggregator) Scan(ctx context.Context, u model.NormalizedURL) model.LookupOutcome {
	if a.deepScan == nil {
		return model.LookupOutcome{
			Status: model.StatusNotConfigured,
			Detail: "urlscan.io: no API key configured",
		}
	}
	outcome, ok := a.bounded(ctx, func(lctx context.Context) any {
		return a.deepScan.Scan(lctx, u)
	})
	if !ok {
		return model.LookupOutcome{Status: model.StatusError, Detail: "urlscan.io: scan timed out"}
	}
	return outcome.(model.LookupOutcome)
}

// boundedLookup runs one lookup under the per-lookup deadline, mapping a
// nil source to not-configured and a missed deadline to an error outcome.
func (a *Aggregator) boundedLookup(ctx context.Context, source Lookuper, u model.NormalizedURL, name string) model.LookupOutcome {
	if source == nil {
		return model.LookupOutcome{
			Status: model.StatusNotConfigured,
			Detail: name + ": no API key configured",
		}
	}
	outcome, ok := a.bounded(ctx, func(lctx context.Context) any {
		return source.Lookup(lctx, u)
	})
	if !ok {
		a.logger.WarnContext(ctx, "lookup timed out", "source", name, "host", u.Host)
		return model.LookupOutcome{Status: model.StatusError, Detail: name + ": lookup timed out"}
	}
	return outcome.(model.LookupOutcome)
}

// bounded runs fn under the per-lookup deadline. When the deadline passes
// before fn returns, bounded gives up waiting; the abandoned goroutine
// exits on its own once fn notices its cancelled context.
func (a *Aggregator) bounded(ctx context.Context, fn func(context.Context) any) (any, bool) {
	lctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan any, 1)
	go func() {
		done <- fn(lctx)
	}()

	select {
	case <-lctx.Done():
		return nil, false
	case v := <-done:
		return v, true
	}
}
