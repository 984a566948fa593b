package intel

import (
	"fmt"
	"testing"
	"time"

	"github.com/nao1215/linkguard/internal/model"
)

func TestResultCache(t *testing.T) {
	t.Parallel()

	t.Run("returns stored outcome before expiry", func(t *testing.T) {
		t.Parallel()

		c := newResultCache()
		c.put("http://a.example", model.LookupOutcome{Status: model.StatusClean, Detail: "ok"})

		got, ok := c.get("http://a.example")
		if !ok {
			t.Fatal("expected cache hit")
		}
		if got.Detail != "ok" {
			t.Errorf("unexpected outcome: %+v", got)
		}
	})

	t.Run("misses unknown keys", func(t *testing.T) {
		t.Parallel()

		c := newResultCache()
		if _, ok := c.get("http://nobody.example"); ok {
			t.Error("unexpected cache hit")
		}
	})

	t.Run("success outcomes expire after the long TTL", func(t *testing.T) {
		t.Parallel()

		current := time.Now()
		c := newResultCache()
		c.now = func() time.Time { return current }

		c.put("k", model.LookupOutcome{Status: model.StatusClean})

		current = current.Add(c.successTTL - time.Second)
		if _, ok := c.get("k"); !ok {
			t.Error("outcome expired too early")
		}

		current = current.Add(2 * time.Second)
		if _, ok := c.get("k"); ok {
			t.Error("outcome should have expired")
		}
	})

	t.Run("error outcomes expire after the short TTL", func(t *testing.T) {
		t.Parallel()

		current := time.Now()
		c := newResultCache()
		c.now = func() time.Time { return current }

		c.put("k", model.LookupOutcome{Status: model.StatusError})

		current = current.Add(c.errorTTL + time.Second)
		if _, ok := c.get("k"); ok {
			t.Error("error outcome should use the short TTL")
		}
	})

	t.Run("evicts oldest keys at the bound", func(t *testing.T) {
		t.Parallel()

		c := newResultCache()
		c.maxEntries = 3
		for i := range 4 {
			c.put(fmt.Sprintf("k%d", i), model.LookupOutcome{Status: model.StatusClean})
		}

		if _, ok := c.get("k0"); ok {
			t.Error("oldest key must be evicted")
		}
		for i := 1; i < 4; i++ {
			if _, ok := c.get(fmt.Sprintf("k%d", i)); !ok {
				t.Errorf("k%d must survive eviction", i)
			}
		}
	})

	t.Run("rewriting a key does not grow the eviction order", func(t *testing.T) {
		t.Parallel()

		c := newResultCache()
		c.maxEntries = 2
		c.put("a", model.LookupOutcome{})
		c.put("a", model.LookupOutcome{})
		c.put("b", model.LookupOutcome{})

		if _, ok := c.get("a"); !ok {
			t.Error("rewritten key must not be double-counted")
		}
		if _, ok := c.get("b"); !ok {
			t.Error("second key must fit in the cache")
		}
	})
}
