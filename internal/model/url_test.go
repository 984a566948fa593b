package model

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("prepends https when scheme missing", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("example.com/path")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Scheme != "https" {
			t.Errorf("expected https scheme, got %s", u.Scheme)
		}
		if u.Normalized != "https://example.com/path" {
			t.Errorf("unexpected normalized form: %s", u.Normalized)
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		if _, err := Normalize("   "); !errors.Is(err, ErrEmptyURL) {
			t.Errorf("expected ErrEmptyURL, got %v", err)
		}
	})

	t.Run("rejects input without host", func(t *testing.T) {
		t.Parallel()

		if _, err := Normalize("https:///nohost"); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})

	t.Run("lowercases scheme and host but keeps path case", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("HTTPS://ExAmPle.COM/CaseSensitive?Q=1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Host != "example.com" {
			t.Errorf("expected lowercased host, got %s", u.Host)
		}
		if u.Path != "/CaseSensitive" {
			t.Errorf("path case must be preserved, got %s", u.Path)
		}
	})

	t.Run("defaults empty path to slash", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Path != "/" {
			t.Errorf("expected / path, got %q", u.Path)
		}
		if u.Normalized != "https://example.com/" {
			t.Errorf("unexpected normalized form: %s", u.Normalized)
		}
	})

	t.Run("keeps brackets around IPv6 literal hosts", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("http://[::1]:8080/admin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Host != "::1" {
			t.Errorf("expected bare host ::1, got %s", u.Host)
		}
		if u.Port != "8080" {
			t.Errorf("expected port 8080, got %s", u.Port)
		}
		if u.Normalized != "http://[::1]:8080/admin" {
			t.Errorf("unexpected normalized form: %s", u.Normalized)
		}
	})

	t.Run("keeps brackets on an IPv6 host without a port", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("http://[::1]/admin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Normalized != "http://[::1]/admin" {
			t.Errorf("unexpected normalized form: %s", u.Normalized)
		}
	})

	t.Run("drops fragment", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("https://example.com/page#section")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Normalized != "https://example.com/page" {
			t.Errorf("fragment must be dropped, got %s", u.Normalized)
		}
	})

	t.Run("keeps explicit port", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("http://example.com:8080/x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Port != "8080" {
			t.Errorf("expected port 8080, got %s", u.Port)
		}
		if u.Normalized != "http://example.com:8080/x" {
			t.Errorf("unexpected normalized form: %s", u.Normalized)
		}
	})

	t.Run("punycode host differs from display host for IDN", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("https://xn--e1afmkfd.xn--p1ai/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Host != "xn--e1afmkfd.xn--p1ai" {
			t.Errorf("lookup host must stay punycode, got %s", u.Host)
		}
		if u.DisplayHost == u.Host {
			t.Error("display host should be decoded for IDN")
		}
		if !u.IsIDN() {
			t.Error("IsIDN should report true")
		}
	})

	t.Run("unicode host is encoded to punycode for lookups", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("https://пример.рф/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Host != "xn--e1afmkfd.xn--p1ai" {
			t.Errorf("expected punycode lookup host, got %s", u.Host)
		}
	})
}

func TestCanonicalKey(t *testing.T) {
	t.Parallel()

	t.Run("trailing slash and case do not matter", func(t *testing.T) {
		t.Parallel()

		a := CanonicalKey("https://example.com/")
		b := CanonicalKey("HTTPS://example.com")
		if a != b {
			t.Errorf("keys differ: %q vs %q", a, b)
		}
	})

	t.Run("consistent across Normalize and raw feed lines", func(t *testing.T) {
		t.Parallel()

		u, err := Normalize("http://Evil.example/Path/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		feedSide, err := Normalize("http://evil.example/Path")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.CanonicalKey() != feedSide.CanonicalKey() {
			t.Errorf("canonical keys must agree: %q vs %q", u.CanonicalKey(), feedSide.CanonicalKey())
		}
	})
}
