// Package main provides the entry point for the LinkGuard CLI.
//
// LinkGuard analyzes URLs for phishing and malware risk. It combines
// structural heuristics, public blocklist feeds, Google Safe Browsing,
// VirusTotal, and an SSRF-guarded page fetch into one risk score.
//
// Usage:
//
//	linkguard check <url>
//	linkguard check --deep <url>
//
// See --help for all available options.
package main

// main is the entry point for LinkGuard.
func main() {
	Execute()
}
