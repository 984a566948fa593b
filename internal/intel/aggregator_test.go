package intel

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/linkguard/internal/model"
)

// stubFeeds returns fixed findings, optionally blocking past any deadline.
type stubFeeds struct {
	findings []model.FeedFinding
	block    bool
}

func (s *stubFeeds) Check(ctx context.Context, _ model.NormalizedURL) []model.FeedFinding {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.findings
}

// stubLookup returns a fixed outcome, optionally blocking past any deadline.
type stubLookup struct {
	outcome model.LookupOutcome
	block   bool
}

func (s *stubLookup) Lookup(ctx context.Context, _ model.NormalizedURL) model.LookupOutcome {
	if s.block {
		<-ctx.Done()
	}
	return s.outcome
}

// stubScan returns a fixed outcome.
type stubScan struct {
	outcome model.LookupOutcome
}

func (s *stubScan) Scan(_ context.Context, _ model.NormalizedURL) model.LookupOutcome {
	return s.outcome
}

func TestAggregatorLookup(t *testing.T) {
	t.Parallel()

	t.Run("fans in results from all sources", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(
			&stubFeeds{findings: []model.FeedFinding{{Source: "URLhaus", Kind: model.FeedMatchDomain}}},
			&stubLookup{outcome: model.LookupOutcome{Status: model.StatusClean, Detail: "sb clean"}},
			&stubLookup{outcome: model.LookupOutcome{Status: model.StatusHit, Detail: "vt hit"}},
			nil,
		)

		result, err := agg.Lookup(context.Background(), mustNormalize(t, "http://a.example"))
		if err != nil {
			t.Fatal(err)
		}
		if len(result.FeedFindings) != 1 {
			t.Errorf("expected 1 feed finding, got %d", len(result.FeedFindings))
		}
		if !result.FeedsConsulted {
			t.Error("completed feed check must be marked consulted")
		}
		if result.SafeBrowsing.Status != model.StatusClean {
			t.Errorf("unexpected safe browsing outcome: %+v", result.SafeBrowsing)
		}
		if result.Reputation.Status != model.StatusHit {
			t.Errorf("unexpected reputation outcome: %+v", result.Reputation)
		}
	})

	t.Run("nil sources report not configured", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(nil, nil, nil, nil)
		result, err := agg.Lookup(context.Background(), mustNormalize(t, "http://a.example"))
		if err != nil {
			t.Fatal(err)
		}
		if result.SafeBrowsing.Status != model.StatusNotConfigured {
			t.Errorf("unexpected outcome: %+v", result.SafeBrowsing)
		}
		if result.Reputation.Status != model.StatusNotConfigured {
			t.Errorf("unexpected outcome: %+v", result.Reputation)
		}
		if result.FeedTimedOut {
			t.Error("missing feed source is not a timeout")
		}
		if result.FeedsConsulted {
			t.Error("missing feed source must not claim a consulted check")
		}
	})

	t.Run("a stuck source does not stall the others", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(
			&stubFeeds{block: true},
			&stubLookup{block: true},
			&stubLookup{outcome: model.LookupOutcome{Status: model.StatusClean}},
			nil,
			WithLookupTimeout(20*time.Millisecond),
		)

		start := time.Now()
		result, err := agg.Lookup(context.Background(), mustNormalize(t, "http://slow.example"))
		if err != nil {
			t.Fatal(err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("fan-in took too long: %v", elapsed)
		}

		if !result.FeedTimedOut {
			t.Error("stuck feed check must be flagged as timed out")
		}
		if result.SafeBrowsing.Status != model.StatusError {
			t.Errorf("stuck lookup must degrade to error, got %s", result.SafeBrowsing.Status)
		}
		if result.Reputation.Status != model.StatusClean {
			t.Errorf("healthy sibling must still succeed, got %s", result.Reputation.Status)
		}
	})
}

func TestAggregatorScan(t *testing.T) {
	t.Parallel()

	t.Run("delegates to the scanner", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(nil, nil, nil, &stubScan{
			outcome: model.LookupOutcome{Status: model.StatusReady, Detail: "done"},
		})
		outcome := agg.Scan(context.Background(), mustNormalize(t, "http://a.example"))

		if outcome.Status != model.StatusReady {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
	})

	t.Run("nil scanner reports not configured", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(nil, nil, nil, nil)
		outcome := agg.Scan(context.Background(), mustNormalize(t, "http://a.example"))

		if outcome.Status != model.StatusNotConfigured {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
	})
}
