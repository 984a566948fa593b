package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Timeouts and caps follow the engine's design constraint that no analysis
// may block indefinitely: every network call carries its own timeout, and
// the aggregator wraps each lookup in an additional independent timeout.
const (
	// DefaultFetchTimeout bounds each HTTP request issued by the guarded
	// fetcher and the intelligence clients. 8 seconds is generous for a
	// single clearnet request while keeping worst-case analysis latency low.
	DefaultFetchTimeout = 8 * time.Second

	// DefaultLookupTimeout is the aggregator's per-lookup deadline, applied
	// on top of the client's own timeout. It is deliberately longer than
	// DefaultFetchTimeout so a retried lookup (one retry with backoff)
	// can still finish inside it.
	DefaultLookupTimeout = 12 * time.Second

	// DefaultMaxRedirects bounds redirect resolution in the fetcher.
	// Legitimate sites rarely chain more than two or three hops.
	DefaultMaxRedirects = 5

	// DefaultMaxBodyBytes caps how much of a response body the fetcher
	// buffers for content scanning. 200KB covers any realistic login or
	// landing page; larger bodies are skipped entirely, never truncated
	// into a half-scanned page.
	DefaultMaxBodyBytes = 200_000

	// DefaultUserAgent identifies LinkGuard in outbound HTTP requests.
	// A descriptive User-Agent lets site operators recognize scanner
	// traffic in their logs.
	DefaultUserAgent = "LinkGuard/1.0 (+https://github.com/nao1215/linkguard)"

	// DefaultFeedTTL is how long a threat-feed snapshot stays fresh.
	// Public blocklists update on the order of hours; 6 hours balances
	// freshness against feed-operator load.
	DefaultFeedTTL = 6 * time.Hour

	// DefaultResultCacheTTL is how long a successful Safe Browsing verdict
	// is reused for the same canonical URL.
	DefaultResultCacheTTL = 30 * time.Minute

	// DefaultErrorCacheTTL is the shorter reuse window for error results,
	// so a transient API failure does not suppress lookups for half an hour.
	DefaultErrorCacheTTL = 3 * time.Minute

	// DefaultMaxCacheEntries bounds the lookup result cache. Oldest entries
	// are evicted first once the bound is reached.
	DefaultMaxCacheEntries = 2000

	// DefaultRetryBackoff is the fixed pause before the single retry of a
	// transient lookup failure (HTTP 429/503, timeout, network error).
	DefaultRetryBackoff = 600 * time.Millisecond

	// DefaultDeepScanPollDelay is how long to wait after submitting a deep
	// scan before polling its result once.
	DefaultDeepScanPollDelay = 1 * time.Second

	// DefaultHistoryLimit is how many checks the history command lists.
	DefaultHistoryLimit = 10

	// DefaultMaxHistoryRows bounds the history table; older rows are
	// pruned on insert.
	DefaultMaxHistoryRows = 500

	// AppName is the application name used for XDG directory paths.
	AppName = "linkguard"
)

// Feed identifies one remote blocklist: a name used for cache files and
// report attribution, and the URL of its plain-text list.
type Feed struct {
	// Name is the feed's display name (also its cache key on disk).
	Name string `yaml:"name"`

	// URL is where the plain-text line list is fetched from.
	URL string `yaml:"url"`
}

// DefaultFeeds returns the feeds consulted when no config file overrides
// them. URLhaus is the only default; additional feeds can be listed in the
// .linkguard config file.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "URLhaus", URL: "https://urlhaus.abuse.ch/downloads/text/"},
	}
}

// Config holds all configuration options for LinkGuard.
// It is populated from CLI flags, the optional .linkguard YAML file, and
// environment variables, then passed through the application via dependency
// injection rather than global state.
type Config struct {
	// FetchTimeout bounds each individual HTTP request.
	FetchTimeout time.Duration

	// LookupTimeout is the aggregator's per-lookup deadline.
	LookupTimeout time.Duration

	// MaxRedirects bounds redirect-chain resolution in the fetcher.
	MaxRedirects int

	// MaxBodyBytes caps the response body buffered for content scanning.
	MaxBodyBytes int64

	// UserAgent is sent with every outbound HTTP request.
	UserAgent string

	// Feeds lists the blocklist feeds consulted by the feed cache.
	Feeds []Feed

	// FeedTTL is the freshness window for feed snapshots.
	FeedTTL time.Duration

	// FeedDir is the directory for on-disk feed caches.
	// Defaults to the XDG cache directory.
	FeedDir string

	// ReputationAPIKey authenticates VirusTotal lookups. Empty degrades
	// the reputation lookup to not-configured.
	ReputationAPIKey string

	// SafeBrowsingAPIKey authenticates Google Safe Browsing lookups.
	// Empty degrades the lookup to not-configured.
	SafeBrowsingAPIKey string

	// DeepScanAPIKey authenticates urlscan.io submissions. Empty degrades
	// the deep scan to not-configured.
	DeepScanAPIKey string

	// DeepCheck forces the deep scan regardless of the preliminary score.
	DeepCheck bool

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport selects JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout when set.
	ReportFile string

	// ConfigFilePath is an explicit .linkguard config file path. When
	// empty the current and home directories are searched.
	ConfigFilePath string

	// DBDir is the directory for the check-history SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveHistory records each check in the history database.
	SaveHistory bool

	// HistoryLimit is how many rows the history command lists.
	HistoryLimit int

	// Targets holds the URLs to analyze.
	Targets []string
}

// NewConfig creates a Config with default values. Non-zero defaults live
// here rather than in flag definitions so library users get the same
// behavior as the CLI.
func NewConfig() *Config {
	return &Config{
		FetchTimeout:  DefaultFetchTimeout,
		LookupTimeout: DefaultLookupTimeout,
		MaxRedirects:  DefaultMaxRedirects,
		MaxBodyBytes:  DefaultMaxBodyBytes,
		UserAgent:     DefaultUserAgent,
		Feeds:         DefaultFeeds(),
		FeedTTL:       DefaultFeedTTL,
		FeedDir:       XDGCacheDir(),
		DBDir:         XDGDataDir(),
		SaveHistory:   true,
		HistoryLimit:  DefaultHistoryLimit,
	}
}

// XDGDataDir returns the XDG data directory for LinkGuard
// (~/.local/share/linkguard on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for LinkGuard
// (~/.cache/linkguard on Linux).
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns a specific
// sentinel error describing the first problem found. It is called once
// after flag parsing, before any analysis begins.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.FetchTimeout <= 0 || c.LookupTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRedirects < 0 {
		return ErrInvalidRedirectBound
	}
	if c.MaxBodyBytes < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
