package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/content"
	"github.com/nao1215/linkguard/internal/heuristic"
	"github.com/nao1215/linkguard/internal/intel"
	"github.com/nao1215/linkguard/internal/model"
)

// missingHeaderScoreCap bounds the total contribution of missing
// security headers; each missing header adds missingHeaderScore.
const (
	missingHeaderScore    = 5
	missingHeaderScoreCap = 25
)

// Scores for fetch outcomes. A refused fetch is stronger evidence than a
// failed one: the guard refusing means the link pointed somewhere no
// public website legitimately lives.
const (
	blockedFetchScore = 25
	failedFetchScore  = 5
)

// Floor scores for intelligence hits. A hit raises the score to at least
// the floor; it never lowers an already higher score.
const (
	safeBrowsingFloor = 80
	reputationFloor   = 70
	feedHitScore      = 60
)

// defaultReason is reported when no check fired.
const defaultReason = "No explicit risk signals were found."

// Fetcher retrieves a page under SSRF guarding.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) *model.FetchResult
}

// Intelligence aggregates external lookups.
type Intelligence interface {
	Lookup(ctx context.Context, u model.NormalizedURL) (*intel.Result, error)
	Scan(ctx context.Context, u model.NormalizedURL) model.LookupOutcome
}

// Engine runs the full analysis for one URL: normalization, structural
// heuristics, the guarded fetch, intelligence lookups, content scanning,
// and score composition. Engines are safe for concurrent use.
type Engine struct {
	cfg     *config.Config
	fetcher Fetcher
	intel   Intelligence
	weights heuristic.Weights
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher replaces the page fetcher.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithIntelligence replaces the lookup aggregator.
func WithIntelligence(i Intelligence) Option {
	return func(e *Engine) {
		e.intel = i
	}
}

// WithWeights replaces the heuristic weights.
func WithWeights(w heuristic.Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. Without options the engine runs with no fetcher
// and no intelligence sources; cmd wiring installs the real ones.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		weights: heuristic.DefaultWeights(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Analyze runs the full analysis. The only fatal error is an unusable
// input URL; every downstream failure degrades into the report instead.
//
// Given deterministic lookups, Analyze is idempotent: the same URL
// yields a byte-identical report.
func (e *Engine) Analyze(ctx context.Context, rawURL string) (*model.Report, error) {
	u, err := model.Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	report := model.NewReport(u)
	score, reasons := heuristic.Evaluate(u, e.weights)
	for _, reason := range reasons {
		report.AddReason(reason)
	}
	e.logger.DebugContext(ctx, "heuristic evaluation", "host", u.Host, "score", score)

	lookups, fetchResult, fetchTimedOut := e.gather(ctx, u)

	score = e.applyIntel(report, lookups, score)
	score = e.applyFetch(ctx, report, fetchResult, fetchTimedOut, u, score)
	score = e.applyReputation(report, lookups, score)

	report.RiskScore = model.ClampScore(score)
	report.RiskLevel = model.LevelForScore(report.RiskScore)
	if len(report.Reasons) == 0 {
		report.AddReason(defaultReason)
	}

	e.deepScan(ctx, report, u)
	return report, nil
}

// gather runs the intelligence fan-out and the page fetch concurrently.
// The fetch gets the same independent deadline as each lookup; a fetch
// that misses it is reported unavailable rather than scored.
func (e *Engine) gather(ctx context.Context, u model.NormalizedURL) (*intel.Result, *model.FetchResult, bool) {
	var (
		lookups       *intel.Result
		fetchResult   *model.FetchResult
		fetchTimedOut bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if e.intel == nil {
			return nil
		}
		result, err := e.intel.Lookup(gctx, u)
		if err != nil {
			return err
		}
		lookups = result
		return nil
	})
	g.Go(func() error {
		if e.fetcher == nil {
			return nil
		}
		fetchResult, fetchTimedOut = e.boundedFetch(gctx, u)
		return nil
	})
	if err := g.Wait(); err != nil {
		e.logger.WarnContext(ctx, "lookup fan-out failed", "error", err.Error())
	}
	return lookups, fetchResult, fetchTimedOut
}

// boundedFetch runs the fetch under the per-lookup deadline.
func (e *Engine) boundedFetch(ctx context.Context, u model.NormalizedURL) (*model.FetchResult, bool) {
	fctx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
	defer cancel()

	done := make(chan *model.FetchResult, 1)
	go func() {
		done <- e.fetcher.Fetch(fctx, u.Normalized)
	}()

	select {
	case <-fctx.Done():
		return nil, true
	case result := <-done:
		return result, false
	}
}

// applyIntel folds the feed check and the Safe Browsing outcome into the
// report and score. The reputation merge happens later, after page
// scoring, so its floor applies to the fully composed score.
func (e *Engine) applyIntel(report *model.Report, lookups *intel.Result, score int) int {
	if lookups == nil {
		return score
	}

	switch {
	case lookups.FeedTimedOut:
		report.AddUnavailable("threat feeds")
	case len(lookups.FeedFindings) > 0:
		score += feedHitScore
		for _, finding := range lookups.FeedFindings {
			report.AddReason(fmt.Sprintf("The link appears on the %s blocklist.", finding.Source))
			report.AddIntel(finding.Detail())
		}
	case lookups.FeedsConsulted:
		report.AddIntel("Public threat feeds: no matches.")
	}

	return e.applyLookup(report, lookups.SafeBrowsing, "Safe Browsing",
		"Google Safe Browsing flags this link as dangerous.", safeBrowsingFloor, score)
}

// applyReputation folds the VirusTotal outcome into the report and score.
func (e *Engine) applyReputation(report *model.Report, lookups *intel.Result, score int) int {
	if lookups == nil {
		return score
	}
	return e.applyLookup(report, lookups.Reputation, "VirusTotal",
		"Antivirus engines flag this link as malicious.", reputationFloor, score)
}

// applyLookup folds one lookup outcome into the report. Hits raise the
// score to the source's floor; errors go to the unavailable list.
func (e *Engine) applyLookup(report *model.Report, outcome model.LookupOutcome, source, hitReason string, floor, score int) int {
	switch outcome.Status {
	case model.StatusHit:
		if score < floor {
			score = floor
		}
		report.AddReason(hitReason)
		report.AddIntel(outcome.Detail)
		for _, threat := range outcome.Threats {
			report.AddTechnical(source + " threat: " + threat)
		}
	case model.StatusError:
		report.AddUnavailable(source)
	default:
		report.AddIntel(outcome.Detail)
	}
	return score
}

// applyFetch folds the fetch outcome into the report and score. A fetch
// that missed its deadline contributes nothing but an unavailable entry.
func (e *Engine) applyFetch(ctx context.Context, report *model.Report, result *model.FetchResult, timedOut bool, u model.NormalizedURL, score int) int {
	if timedOut {
		report.AddUnavailable("page fetch")
		return score
	}
	if result == nil {
		return score
	}

	switch {
	case result.Blocked():
		score += blockedFetchScore
		report.AddReason("The link could not be fetched safely: " + result.BlockedReason)
		report.AddTechnical("fetch blocked: " + result.BlockedReason)
	case result.Failed():
		score += failedFetchScore
		report.AddReason("The page did not respond normally.")
		report.AddTechnical("fetch error: " + result.Error)
	default:
		report.AddTechnical(fmt.Sprintf("HTTP status %d", result.Status))
		score = e.applyPage(ctx, report, result, u, score)
	}
	return score
}

// applyPage scores redirects, headers, and page content of a successful
// fetch.
func (e *Engine) applyPage(_ context.Context, report *model.Report, result *model.FetchResult, u model.NormalizedURL, score int) int {
	if redirectScore, reason := summarizeRedirects(result.RedirectChain, result.FinalURL); redirectScore > 0 {
		score += redirectScore
		report.AddReason(reason)
		report.AddTechnical(redirectTrace(result.RedirectChain, result.FinalURL))
	}

	if missing := content.MissingSecurityHeaders(result.Headers); len(missing) > 0 {
		headerScore := missingHeaderScore * len(missing)
		if headerScore > missingHeaderScoreCap {
			headerScore = missingHeaderScoreCap
		}
		score += headerScore
		report.AddReason("The site is missing standard security headers.")
		for _, name := range missing {
			report.AddTechnical("missing header: " + name)
		}
	}

	if result.BodyText != "" {
		for _, finding := range content.AnalyzeHTML(result.BodyText, u.Host) {
			score += finding.Score
			report.AddReason(finding.Reason)
			report.AddTechnical(finding.Technical)
		}
	}
	return score
}

// deepScan runs the conditional sandbox scan after scoring. The scan is
// informational: it adds intel lines but never changes the score.
func (e *Engine) deepScan(ctx context.Context, report *model.Report, u model.NormalizedURL) {
	if e.intel == nil {
		return
	}
	if !e.cfg.DeepCheck && report.RiskScore < model.HighRiskThreshold {
		return
	}

	start := time.Now()
	outcome := e.intel.Scan(ctx, u)
	e.logger.DebugContext(ctx, "deep scan finished",
		"status", outcome.Status.String(), "elapsed", time.Since(start).String())

	switch outcome.Status {
	case model.StatusNotConfigured:
		// Nothing to report when the scanner was never set up.
	case model.StatusError:
		report.AddUnavailable("deep scan")
	default:
		report.AddIntel(outcome.Detail)
		if outcome.ResultURL != "" {
			report.AddIntel("Full scan result: " + outcome.ResultURL)
		}
	}
}
