package model

import "testing"

func TestLevelForScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{34, RiskLow},
		{35, RiskMedium},
		{69, RiskMedium},
		{70, RiskHigh},
		{100, RiskHigh},
	}

	for _, tt := range tests {
		if got := LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	if got := ClampScore(-5); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := ClampScore(250); got != MaxRiskScore {
		t.Errorf("expected %d, got %d", MaxRiskScore, got)
	}
	if got := ClampScore(42); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestRiskLevelString(t *testing.T) {
	t.Parallel()

	if got := RiskHigh.String(); got != "HIGH" {
		t.Errorf("expected HIGH, got %s", got)
	}
	if got := RiskLevel(99).String(); got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", got)
	}
}

func TestFeedFindingDetail(t *testing.T) {
	t.Parallel()

	f := FeedFinding{Source: "URLhaus", Kind: FeedMatchDomain, Stale: true}
	want := "URLhaus: domain match (stale cache)"
	if got := f.Detail(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
