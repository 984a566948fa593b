package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/nao1215/linkguard/internal/model"
)

// HTML pattern tables. Matching is deliberately text-based: a DOM parse
// of attacker-controlled markup can be defeated by broken tags that
// browsers still render, while substring and regex checks see the raw
// bytes the browser saw.
var (
	formPattern        = regexp.MustCompile(`(?i)<form\b`)
	passwordPattern    = regexp.MustCompile(`(?i)type\s*=\s*["']?password`)
	emailPattern       = regexp.MustCompile(`(?i)type\s*=\s*["']?email`)
	actionPattern      = regexp.MustCompile(`(?i)<form[^>]*\baction\s*=\s*["']?([^"'\s>]+)`)
	postMethodPattern  = regexp.MustCompile(`(?i)<form[^>]*\bmethod\s*=\s*["']?post`)
	iframePattern      = regexp.MustCompile(`(?i)<iframe\b`)
	metaRefreshPattern = regexp.MustCompile(`(?i)<meta[^>]*http-equiv\s*=\s*["']?refresh`)
	scriptSrcPattern   = regexp.MustCompile(`(?i)<script[^>]*\bsrc\s*=\s*["']([^"']+)["']`)
)

// phishingWords are credential-harvesting and urgency keywords common on
// phishing landing pages. Single-word substring matches are intentional;
// the +5 weight keeps the inevitable benign hits cheap.
var phishingWords = []string{
	"login",
	"password",
	"verify",
	"account",
	"signin",
	"bank",
	"update",
	"security",
	"confirm",
}

// downloadWords push the visitor toward installing something.
var downloadWords = []string{
	"download",
	"installer",
	"setup",
	"update now",
	"browser update",
}

// AnalyzeHTML scans page markup for phishing and malware delivery
// patterns. baseHost is the page's own hostname, used to spot forms
// that submit credentials elsewhere. Findings carry their own additive
// scores; the caller composes them into the overall risk score.
func AnalyzeHTML(html, baseHost string) []model.ContentFinding {
	var findings []model.ContentFinding
	lower := strings.ToLower(html)

	findings = append(findings, formFindings(html, baseHost)...)

	if iframePattern.MatchString(html) {
		findings = append(findings, model.ContentFinding{
			Reason:    "The page embeds hidden or third-party content in an iframe.",
			Technical: "iframe element present",
			Score:     6,
		})
	}
	if metaRefreshPattern.MatchString(html) {
		findings = append(findings, model.ContentFinding{
			Reason:    "The page silently forwards visitors with a meta refresh.",
			Technical: "meta refresh redirect",
			Score:     8,
		})
	}
	if hosts := externalScriptHosts(html, baseHost); len(hosts) >= 3 {
		findings = append(findings, model.ContentFinding{
			Reason:    "The page loads scripts from many different hosts.",
			Technical: fmt.Sprintf("scripts from %d external hosts", len(hosts)),
			Score:     8,
		})
	}
	if hits := matchedWords(lower, phishingWords); len(hits) > 0 {
		findings = append(findings, model.ContentFinding{
			Reason:    "The page uses wording typical of phishing sites.",
			Technical: "phishing keywords: " + strings.Join(hits, ", "),
			Score:     5,
		})
	}
	if hits := matchedWords(lower, downloadWords); len(hits) > 0 {
		findings = append(findings, model.ContentFinding{
			Reason:    "The page pushes the visitor to download or install software.",
			Technical: "download keywords: " + strings.Join(hits, ", "),
			Score:     8,
		})
	}
	return findings
}

// formFindings covers everything keyed on a form element: the input
// types it collects and where and how it submits. The input-type
// findings are mutually exclusive; one form yields one of them.
func formFindings(html, baseHost string) []model.ContentFinding {
	if !formPattern.MatchString(html) {
		return nil
	}

	var findings []model.ContentFinding
	switch {
	case passwordPattern.MatchString(html):
		findings = append(findings, model.ContentFinding{
			Reason:    "The page contains a form asking for a password.",
			Technical: "form with password input",
			Score:     25,
		})
	case emailPattern.MatchString(html):
		findings = append(findings, model.ContentFinding{
			Reason:    "The page contains a form collecting email addresses.",
			Technical: "form with email input",
			Score:     12,
		})
	default:
		findings = append(findings, model.ContentFinding{
			Reason:    "The page contains a form collecting visitor input.",
			Technical: "form element present",
			Score:     10,
		})
	}

	if match := actionPattern.FindStringSubmatch(html); match != nil {
		findings = append(findings, actionFindings(match[1], baseHost)...)
	}
	if postMethodPattern.MatchString(html) {
		findings = append(findings, model.ContentFinding{
			Reason:    "The form submits data with a POST request.",
			Technical: "form method POST",
			Score:     5,
		})
	}
	return findings
}

// actionFindings inspects where the form submits to.
func actionFindings(action, baseHost string) []model.ContentFinding {
	var findings []model.ContentFinding
	lowerAction := strings.ToLower(action)

	if strings.HasPrefix(lowerAction, "mailto:") {
		return append(findings, model.ContentFinding{
			Reason:    "The form sends its data to an email address.",
			Technical: "form action mailto: " + action,
			Score:     15,
		})
	}

	parsed, err := url.Parse(action)
	if err != nil || parsed.Host == "" {
		return findings
	}

	if !strings.EqualFold(parsed.Host, baseHost) {
		findings = append(findings, model.ContentFinding{
			Reason:    "The form submits data to a different website.",
			Technical: "form action host " + parsed.Host,
			Score:     15,
		})
	}
	if parsed.Scheme == "http" {
		findings = append(findings, model.ContentFinding{
			Reason:    "The form submits data over an unencrypted connection.",
			Technical: "form action over http",
			Score:     10,
		})
	}
	return findings
}

// externalScriptHosts lists distinct script source hosts other than the
// page's own.
func externalScriptHosts(html, baseHost string) []string {
	seen := make(map[string]struct{})
	for _, match := range scriptSrcPattern.FindAllStringSubmatch(html, -1) {
		parsed, err := url.Parse(match[1])
		if err != nil || parsed.Host == "" {
			continue
		}
		host := strings.ToLower(parsed.Host)
		if strings.EqualFold(host, baseHost) {
			continue
		}
		seen[host] = struct{}{}
	}
	hosts := make([]string, 0, len(seen))
	for host := range seen {
		hosts = append(hosts, host)
	}
	return hosts
}

// matchedWords returns every keyword present in the lowercased text, in
// table order, so the technical line names what actually fired.
func matchedWords(lower string, words []string) []string {
	var hits []string
	for _, word := range words {
		if strings.Contains(lower, word) {
			hits = append(hits, word)
		}
	}
	return hits
}
