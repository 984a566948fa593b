package feed

import (
	"strings"
	"time"

	"github.com/nao1215/linkguard/internal/model"
)

// Snapshot is one feed's parsed blocklist at a point in time. It holds two
// membership sets: full canonical URLs and bare hostnames. Lookups against
// a snapshot never touch the network.
type Snapshot struct {
	// Name is the feed this snapshot came from.
	Name string

	// URLSet holds canonical URL keys from the feed.
	URLSet map[string]struct{}

	// DomainSet holds bare hostnames from the feed.
	DomainSet map[string]struct{}

	// LoadedAt is when the underlying feed text was fetched.
	LoadedAt time.Time

	// Stale marks a snapshot older than the freshness window that is
	// served anyway because a refresh failed.
	Stale bool
}

// newSnapshot parses raw feed text into membership sets. Feed files are one
// entry per line; blank lines and comments are skipped. A line without a
// scheme is a bare hostname and also contributes a domain entry.
func newSnapshot(name, text string, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		Name:      name,
		URLSet:    make(map[string]struct{}),
		DomainSet: make(map[string]struct{}),
		LoadedAt:  loadedAt,
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := line
		if !strings.Contains(entry, "://") {
			s.DomainSet[strings.ToLower(entry)] = struct{}{}
			entry = "http://" + entry
		}

		u, err := model.Normalize(entry)
		if err != nil {
			continue
		}
		s.URLSet[u.CanonicalKey()] = struct{}{}
		s.DomainSet[u.Host] = struct{}{}
	}
	return s
}

// emptySnapshot is the fail-open fallback when a feed has never been
// fetched successfully and the refresh failed too. It matches nothing.
func emptySnapshot(name string) *Snapshot {
	return &Snapshot{
		Name:      name,
		URLSet:    make(map[string]struct{}),
		DomainSet: make(map[string]struct{}),
		Stale:     true,
	}
}

// Size returns how many distinct entries the snapshot holds.
func (s *Snapshot) Size() int {
	return len(s.URLSet)
}

// Match checks the URL against the snapshot. A full URL match is reported
// in preference to a domain match. The second return value is false when
// the snapshot does not list the URL at all.
func (s *Snapshot) Match(u model.NormalizedURL) (model.FeedFinding, bool) {
	if _, ok := s.URLSet[u.CanonicalKey()]; ok {
		return model.FeedFinding{Source: s.Name, Kind: model.FeedMatchURL, Stale: s.Stale}, true
	}
	if _, ok := s.DomainSet[u.Host]; ok {
		return model.FeedFinding{Source: s.Name, Kind: model.FeedMatchDomain, Stale: s.Stale}, true
	}
	return model.FeedFinding{}, false
}
