package engine

import (
	"strings"
	"testing"
)

func TestSummarizeRedirects(t *testing.T) {
	t.Parallel()

	t.Run("no redirects", func(t *testing.T) {
		t.Parallel()

		score, reason := summarizeRedirects(nil, "https://a.example/")
		if score != 0 || reason != "" {
			t.Errorf("expected silence, got %d %q", score, reason)
		}
	})

	t.Run("cross-host redirect", func(t *testing.T) {
		t.Parallel()

		score, reason := summarizeRedirects(
			[]string{"https://short.example/x"},
			"https://landing.example/page",
		)
		if score != 10 {
			t.Errorf("expected 10, got %d", score)
		}
		if !strings.Contains(reason, "different websites") {
			t.Errorf("unexpected reason: %s", reason)
		}
	})

	t.Run("single same-host hop is silent", func(t *testing.T) {
		t.Parallel()

		score, _ := summarizeRedirects(
			[]string{"https://a.example/old"},
			"https://a.example/new",
		)
		if score != 0 {
			t.Errorf("expected 0, got %d", score)
		}
	})

	t.Run("long same-host chain", func(t *testing.T) {
		t.Parallel()

		score, reason := summarizeRedirects(
			[]string{"https://a.example/1", "https://a.example/2"},
			"https://a.example/3",
		)
		if score != 5 {
			t.Errorf("expected 5, got %d", score)
		}
		if !strings.Contains(reason, "multiple consecutive redirects") {
			t.Errorf("unexpected reason: %s", reason)
		}
	})

	t.Run("cross-host beats chain length", func(t *testing.T) {
		t.Parallel()

		score, _ := summarizeRedirects(
			[]string{"https://a.example/1", "https://a.example/2"},
			"https://b.example/3",
		)
		if score != 10 {
			t.Errorf("cross-host rule must win, got %d", score)
		}
	})
}

func TestRedirectTrace(t *testing.T) {
	t.Parallel()

	trace := redirectTrace([]string{"https://a.example/"}, "https://b.example/")
	want := "redirect chain: https://a.example/ => https://b.example/"
	if trace != want {
		t.Errorf("got %q, want %q", trace, want)
	}
}
