package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/model"
)

// meta records when a cached feed file was fetched. It sits next to the
// feed text on disk so freshness survives process restarts.
type meta struct {
	// FetchedAt is when the feed text was downloaded.
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache serves blocklist snapshots through three layers: an in-process map,
// plain-text files under the XDG cache directory, and the network. A feed
// that cannot be refreshed is served stale rather than failing the check;
// a feed that was never fetched matches nothing.
type Cache struct {
	mu sync.Mutex

	feeds     []config.Feed
	dir       string
	ttl       time.Duration
	userAgent string
	client    *http.Client
	logger    *slog.Logger
	memory    map[string]*Snapshot
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the snapshot freshness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithUserAgent sets the User-Agent for feed downloads.
func WithUserAgent(ua string) CacheOption {
	return func(c *Cache) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets the HTTP client used for feed downloads.
func WithHTTPClient(client *http.Client) CacheOption {
	return func(c *Cache) {
		c.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a feed cache storing files under dir.
func NewCache(feeds []config.Feed, dir string, opts ...CacheOption) *Cache {
	c := &Cache{
		feeds:  feeds,
		dir:    dir,
		ttl:    config.DefaultFeedTTL,
		memory: make(map[string]*Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: config.DefaultFetchTimeout}
	}
	if c.userAgent == "" {
		c.userAgent = config.DefaultUserAgent
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Check matches the URL against every configured feed. Snapshots are loaded
// lazily; a feed that cannot be loaded contributes no findings.
func (c *Cache) Check(ctx context.Context, u model.NormalizedURL) []model.FeedFinding {
	var findings []model.FeedFinding
	for _, feed := range c.feeds {
		snapshot := c.snapshot(ctx, feed)
		if finding, ok := snapshot.Match(u); ok {
			findings = append(findings, finding)
		}
	}
	return findings
}

// Refresh forces a network download of every feed, bypassing both cache
// layers. It returns the first error encountered but still attempts the
// remaining feeds.
func (c *Cache) Refresh(ctx context.Context) ([]*Snapshot, error) {
	var firstErr error
	snapshots := make([]*Snapshot, 0, len(c.feeds))
	for _, feed := range c.feeds {
		snapshot, err := c.download(ctx, feed)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("refresh %s: %w", feed.Name, err)
			}
			c.logger.WarnContext(ctx, "feed refresh failed", "feed", feed.Name, "error", err.Error())
			continue
		}
		c.mu.Lock()
		c.memory[feed.Name] = snapshot
		c.mu.Unlock()
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, firstErr
}

// FeedStatus describes one feed's cache state for the status listing.
type FeedStatus struct {
	// Name is the feed's display name.
	Name string

	// URL is where the feed is downloaded from.
	URL string

	// FetchedAt is when the cached copy was downloaded. Zero when the
	// feed has never been fetched.
	FetchedAt time.Time

	// Entries is the number of distinct URLs in the cached copy.
	Entries int

	// Fresh is true when the cached copy is within the freshness window.
	Fresh bool
}

// Status reports the on-disk cache state of every configured feed without
// touching the network.
func (c *Cache) Status() []FeedStatus {
	statuses := make([]FeedStatus, 0, len(c.feeds))
	for _, feed := range c.feeds {
		status := FeedStatus{Name: feed.Name, URL: feed.URL}
		if snapshot, err := c.loadDisk(feed); err == nil {
			status.FetchedAt = snapshot.LoadedAt
			status.Entries = snapshot.Size()
			status.Fresh = time.Since(snapshot.LoadedAt) < c.ttl
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// snapshot returns the freshest snapshot obtainable for the feed. Layers
// are tried in order: fresh memory, fresh disk, network. When the network
// fails an expired copy is served marked stale, and when no copy exists at
// all an empty snapshot is returned so the check fails open.
func (c *Cache) snapshot(ctx context.Context, feed config.Feed) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.memory[feed.Name]; ok && !cached.Stale && time.Since(cached.LoadedAt) < c.ttl {
		return cached
	}

	disk, diskErr := c.loadDisk(feed)
	if diskErr == nil && time.Since(disk.LoadedAt) < c.ttl {
		c.memory[feed.Name] = disk
		return disk
	}

	fresh, err := c.download(ctx, feed)
	if err == nil {
		c.memory[feed.Name] = fresh
		return fresh
	}
	c.logger.WarnContext(ctx, "feed download failed", "feed", feed.Name, "error", err.Error())

	if diskErr == nil {
		disk.Stale = true
		c.memory[feed.Name] = disk
		return disk
	}
	empty := emptySnapshot(feed.Name)
	c.memory[feed.Name] = empty
	return empty
}

// download fetches the feed text, writes it through to disk, and parses it.
func (c *Cache) download(ctx context.Context, feed config.Feed) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	fetchedAt := time.Now()
	if err := c.writeDisk(feed, body, fetchedAt); err != nil {
		// A read-only cache directory degrades persistence, not analysis.
		c.logger.WarnContext(ctx, "feed cache write failed", "feed", feed.Name, "error", err.Error())
	}
	return newSnapshot(feed.Name, string(body), fetchedAt), nil
}

// loadDisk parses the cached feed file and its metadata.
func (c *Cache) loadDisk(feed config.Feed) (*Snapshot, error) {
	text, err := os.ReadFile(c.textPath(feed))
	if err != nil {
		return nil, err
	}
	metaBytes, err := os.ReadFile(c.metaPath(feed))
	if err != nil {
		return nil, err
	}
	var m meta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		return nil, err
	}
	return newSnapshot(feed.Name, string(text), m.FetchedAt), nil
}

// writeDisk persists the feed text and its fetch timestamp.
func (c *Cache) writeDisk(feed config.Feed, body []byte, fetchedAt time.Time) error {
	if err := os.MkdirAll(c.dir, 0750); err != nil {
		return err
	}
	if err := os.WriteFile(c.textPath(feed), body, 0600); err != nil {
		return err
	}
	metaBytes, err := json.Marshal(meta{FetchedAt: fetchedAt})
	if err != nil {
		return err
	}
	return os.WriteFile(c.metaPath(feed), metaBytes, 0600)
}

func (c *Cache) textPath(feed config.Feed) string {
	return filepath.Join(c.dir, slug(feed.Name)+".txt")
}

func (c *Cache) metaPath(feed config.Feed) string {
	return filepath.Join(c.dir, slug(feed.Name)+".meta.json")
}

// slug turns a feed name into a safe file name.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
