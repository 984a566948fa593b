package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/linkguard/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with a risk verdict up
// front and evidence sections below it.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the technical evidence section.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the technical evidence section.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeVerdict(&sb, report)
	w.writeReasons(&sb, report)
	w.writeIntel(&sb, report)
	w.writeUnavailable(&sb, report)
	if w.verbose {
		w.writeTechnical(&sb, report)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with the analyzed URL.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         LINKGUARD REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("URL:  %s\n", report.URL))
	sb.WriteString(fmt.Sprintf("Host: %s\n", report.Host))
	if report.DisplayHost != report.Host {
		sb.WriteString(fmt.Sprintf("      displays as %s (internationalized domain)\n", report.DisplayHost))
	}
	sb.WriteString("\n")
}

// writeVerdict writes the risk score and level.
func (w *SimpleWriter) writeVerdict(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VERDICT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	indicator := w.getRiskIndicator(report.RiskLevel)
	sb.WriteString(fmt.Sprintf("  [%s] Risk: %s (score %d/100)\n", indicator, report.RiskLevel.String(), report.RiskScore))
	sb.WriteString("\n")
}

// writeReasons writes the reasons section.
func (w *SimpleWriter) writeReasons(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("WHY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, reason := range report.Reasons {
		sb.WriteString(fmt.Sprintf("  * %s\n", reason))
	}
	sb.WriteString("\n")
}

// writeIntel writes the intelligence sources section.
func (w *SimpleWriter) writeIntel(sb *strings.Builder, report *model.Report) {
	if len(report.Intel) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("INTELLIGENCE SOURCES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, line := range report.Intel {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", line))
	}
	sb.WriteString("\n")
}

// writeUnavailable writes the sources that produced no answer.
func (w *SimpleWriter) writeUnavailable(sb *strings.Builder, report *model.Report) {
	if len(report.Unavailable) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("  Note: could not consult %s; the score may underestimate the risk.\n\n",
		strings.Join(report.Unavailable, ", ")))
}

// writeTechnical writes the diagnostic evidence section.
func (w *SimpleWriter) writeTechnical(sb *strings.Builder, report *model.Report) {
	if len(report.Technical) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TECHNICAL EVIDENCE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, detail := range report.Technical {
		sb.WriteString(fmt.Sprintf("  - %s\n", detail))
	}
	sb.WriteString("\n")
}

// getRiskIndicator returns a visual indicator for the risk level.
func (w *SimpleWriter) getRiskIndicator(level model.RiskLevel) string {
	switch level {
	case model.RiskHigh:
		return "!!!"
	case model.RiskMedium:
		return "!"
	default:
		return "-"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by LinkGuard\n")
	sb.WriteString("https://github.com/nao1215/linkguard\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
