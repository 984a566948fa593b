// Package feed downloads, caches, and queries public blocklist feeds.
//
// Feeds are plain-text line lists (full URLs or bare hostnames). Snapshots
// are cached in memory and on disk under the XDG cache directory; lookups
// fail open, so a feed that cannot be fetched never blocks an analysis.
package feed
