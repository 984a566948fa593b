// Package intel queries external threat-intelligence sources: blocklist
// feeds, Google Safe Browsing, VirusTotal, and urlscan.io deep scans.
//
// All sources are optional. A missing API key degrades a source to a
// not-configured outcome, and a failing source degrades to an error
// outcome; neither ever fails an analysis. The aggregator fans the
// lookups out concurrently with independent per-lookup deadlines.
package intel
