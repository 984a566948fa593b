package report

import (
	"io"
	"strconv"

	"github.com/nao1215/linkguard/internal/model"
	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeVerdict(md, report)
	w.writeReasons(md, report)
	w.writeIntel(md, report)
	w.writeTechnical(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with the analyzed URL.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("LinkGuard Report")
	md.PlainText("")

	host := "`" + report.Host + "`"
	if report.DisplayHost != report.Host {
		host += " (displays as `" + report.DisplayHost + "`)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + report.URL + "`"},
			{"Host", host},
			{"Risk Score", strconv.Itoa(report.RiskScore) + "/100"},
			{"Risk Level", report.RiskLevel.String()},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert writes an appropriate alert based on the risk level.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	switch report.RiskLevel {
	case model.RiskHigh:
		md.Cautionf("High risk. Do not open this link; score %d/100.", report.RiskScore)
	case model.RiskMedium:
		md.Warningf("Medium risk. Open this link only if you trust the sender; score %d/100.", report.RiskScore)
	default:
		md.Note("No strong risk signals detected.")
	}
	md.PlainText("")
}

// writeVerdict writes the reasons behind the verdict.
func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, report *model.Report) {
	if len(report.Unavailable) == 0 {
		return
	}

	md.H2("Sources Not Consulted")
	md.PlainText("")
	md.BulletList(report.Unavailable...)
	md.PlainText("")
	md.PlainText("The score may underestimate the risk.")
	md.PlainText("")
}

// writeReasons writes the reasons section.
func (w *MarkdownWriter) writeReasons(md *markdown.Markdown, report *model.Report) {
	md.H2("Why")
	md.PlainText("")
	md.BulletList(report.Reasons...)
	md.PlainText("")
}

// writeIntel writes the intelligence sources section.
func (w *MarkdownWriter) writeIntel(md *markdown.Markdown, report *model.Report) {
	if len(report.Intel) == 0 {
		return
	}

	md.H2("Intelligence Sources")
	md.PlainText("")
	md.BulletList(report.Intel...)
	md.PlainText("")
}

// writeTechnical writes the diagnostic evidence section.
func (w *MarkdownWriter) writeTechnical(md *markdown.Markdown, report *model.Report) {
	if len(report.Technical) == 0 {
		return
	}

	md.H2("Technical Evidence")
	md.PlainText("")

	rows := make([][]string, len(report.Technical))
	for i, detail := range report.Technical {
		rows[i] = []string{truncateString(detail, 90)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Evidence"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [LinkGuard](https://github.com/nao1215/linkguard)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
