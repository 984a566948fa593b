package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/linkguard/internal/config"
	"github.com/nao1215/linkguard/internal/model"
)

func TestCacheCheck(t *testing.T) {
	t.Parallel()

	t.Run("downloads once and serves from memory", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte("http://evil.example/payload\n"))
		}))
		defer server.Close()

		cache := NewCache(
			[]config.Feed{{Name: "TestFeed", URL: server.URL}},
			t.TempDir(),
		)
		u, err := model.Normalize("http://evil.example/payload")
		if err != nil {
			t.Fatal(err)
		}

		for range 3 {
			findings := cache.Check(context.Background(), u)
			if len(findings) != 1 {
				t.Fatalf("expected 1 finding, got %d", len(findings))
			}
			if findings[0].Source != "TestFeed" {
				t.Errorf("unexpected source: %s", findings[0].Source)
			}
			if findings[0].Stale {
				t.Error("fresh snapshot must not be stale")
			}
		}
		if hits.Load() != 1 {
			t.Errorf("expected a single download, got %d", hits.Load())
		}
	})

	t.Run("reuses the disk cache across instances", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte("bad-host.example\n"))
		}))
		defer server.Close()

		dir := t.TempDir()
		feeds := []config.Feed{{Name: "TestFeed", URL: server.URL}}
		u, err := model.Normalize("http://bad-host.example/x")
		if err != nil {
			t.Fatal(err)
		}

		first := NewCache(feeds, dir)
		if got := first.Check(context.Background(), u); len(got) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(got))
		}

		second := NewCache(feeds, dir)
		if got := second.Check(context.Background(), u); len(got) != 1 {
			t.Fatalf("expected 1 finding from disk, got %d", len(got))
		}
		if hits.Load() != 1 {
			t.Errorf("second instance must read from disk, downloads: %d", hits.Load())
		}
	})

	t.Run("serves expired disk cache stale when refresh fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("bad-host.example\n"))
		}))

		dir := t.TempDir()
		feeds := []config.Feed{{Name: "TestFeed", URL: server.URL}}
		u, err := model.Normalize("http://bad-host.example/")
		if err != nil {
			t.Fatal(err)
		}

		warm := NewCache(feeds, dir)
		if got := warm.Check(context.Background(), u); len(got) != 1 {
			t.Fatalf("warm-up failed, got %d findings", len(got))
		}
		server.Close()

		// Zero TTL expires the disk copy immediately; the dead server
		// forces the stale fallback.
		cold := NewCache(feeds, dir, WithTTL(time.Nanosecond))
		findings := cold.Check(context.Background(), u)
		if len(findings) != 1 {
			t.Fatalf("expected 1 stale finding, got %d", len(findings))
		}
		if !findings[0].Stale {
			t.Error("finding from an expired snapshot must be stale")
		}
	})

	t.Run("matches nothing when feed was never fetched", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("irrelevant\n"))
		}))
		server.Close()

		cache := NewCache(
			[]config.Feed{{Name: "TestFeed", URL: server.URL}},
			t.TempDir(),
		)
		u, err := model.Normalize("http://anything.example/")
		if err != nil {
			t.Fatal(err)
		}
		if got := cache.Check(context.Background(), u); len(got) != 0 {
			t.Errorf("unreachable feed must fail open, got %d findings", len(got))
		}
	})
}

func TestCacheRefresh(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("http://evil.example/a\nhttp://evil.example/b\n"))
	}))
	defer server.Close()

	cache := NewCache(
		[]config.Feed{{Name: "TestFeed", URL: server.URL}},
		t.TempDir(),
	)

	snapshots, err := cache.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].Size() != 2 {
		t.Errorf("expected 2 entries, got %d", snapshots[0].Size())
	}
}

func TestCacheStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("http://evil.example/a\n"))
	}))
	defer server.Close()

	dir := t.TempDir()
	cache := NewCache([]config.Feed{{Name: "TestFeed", URL: server.URL}}, dir)

	before := cache.Status()
	if len(before) != 1 {
		t.Fatalf("expected 1 status row, got %d", len(before))
	}
	if !before[0].FetchedAt.IsZero() || before[0].Fresh {
		t.Errorf("unfetched feed must report empty state: %+v", before[0])
	}

	if _, err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	after := cache.Status()
	if after[0].FetchedAt.IsZero() || !after[0].Fresh {
		t.Errorf("fetched feed must report fresh state: %+v", after[0])
	}
	if after[0].Entries != 1 {
		t.Errorf("expected 1 entry, got %d", after[0].Entries)
	}
}
