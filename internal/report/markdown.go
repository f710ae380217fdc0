package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation
// and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AnalysisReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	if !report.Failed() {
		w.writeVerdict(md, report)
		w.writeAlgorithms(md, report)
		w.writeRecommendations(md, report)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the batch summary with a risk distribution chart.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H2("Batch Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🔴 High", strconv.Itoa(summary.HighCount)},
			{"🟡 Medium", strconv.Itoa(summary.MediumCount)},
			{"🟢 Low", strconv.Itoa(summary.LowCount)},
			{"❌ Failed", strconv.Itoa(summary.FailedCount)},
			{"Potentially edited", strconv.Itoa(summary.EditedCount)},
			{"**Total**", "**" + strconv.Itoa(summary.Total) + "**"},
		},
	})
	md.PlainText("")

	if summary.Analyzed() > 0 {
		w.writePieChart(md, summary)
	}

	if summary.InconclusiveCount > 0 {
		md.Importantf(
			"%d verdict(s) are inconclusive because every algorithm failed.",
			summary.InconclusiveCount,
		)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// writeHeader writes the file information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H1("Image Forensics Report")
	md.PlainText("")

	rows := [][]string{
		{"File", "`" + report.Filename + "`"},
	}
	if report.Format != "" {
		rows = append(rows,
			[]string{"Format", report.Format},
			[]string{"Dimensions", strconv.Itoa(report.Width) + "x" + strconv.Itoa(report.Height)},
			[]string{"Size", strconv.Itoa(report.SizeBytes) + " bytes"},
		)
	}
	if report.SHA3 != "" {
		rows = append(rows, []string{"SHA3-256", "`" + report.SHA3 + "`"})
	}
	rows = append(rows,
		[]string{"Analyzed", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
		[]string{"Status", w.getStatusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.AnalysisReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	if report.Verdict != nil && report.Verdict.AllFailed() {
		return "⚠️ Inconclusive"
	}
	return "✅ Complete"
}

// writeVerdict writes the score table and an alert matching the risk tier.
func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Verdict")
	md.PlainText("")

	edited := "No"
	if report.IsPotentiallyEdited {
		edited = "Yes"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Risk Level", "Confidence Score", "Potentially Edited"},
		Rows: [][]string{
			{riskLabel(report.RiskLevel), formatScore(report.ConfidenceScore), edited},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert writes an alert based on the risk tier.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AnalysisReport) {
	switch {
	case report.Verdict.AllFailed():
		md.Note("Every algorithm failed, so the low score carries no evidence.")
	case report.RiskLevel == forensics.RiskHigh:
		md.Cautionf("High manipulation risk (score %s). Manual review recommended.",
			formatScore(report.ConfidenceScore))
	case report.RiskLevel == forensics.RiskMedium:
		md.Warningf("Medium manipulation risk (score %s). Additional verification suggested.",
			formatScore(report.ConfidenceScore))
	default:
		md.Tip("No significant manipulation indicators detected.")
	}
	md.PlainText("")
}

// writeAlgorithms writes the per-algorithm table and collapsible details.
func (w *MarkdownWriter) writeAlgorithms(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Algorithms")
	md.PlainText("")

	rows := orderedResults(report.Verdict)
	tableRows := make([][]string, len(rows))
	for i, row := range rows {
		score := formatScore(row.result.Score)
		if !row.result.Success {
			score = "-"
		}
		tableRows[i] = []string{
			row.displayName(),
			"`" + row.id.String() + "`",
			score,
			row.status(),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Algorithm", "ID", "Score", "Status"},
		Rows:   tableRows,
	})
	md.PlainText("")

	for _, row := range rows {
		body := w.detailsBody(row)
		if body == "" {
			continue
		}
		md.Details(row.displayName(), body)
	}
	md.PlainText("")
}

// detailsBody renders one algorithm's details as "key: value" lines.
func (w *MarkdownWriter) detailsBody(row algorithmRow) string {
	lines := make([]string, 0, len(row.result.Details)+1)
	if row.result.Error != "" {
		lines = append(lines, "error: "+truncateString(row.result.Error, 200))
	}
	for _, key := range sortedDetailKeys(row.result.Details) {
		lines = append(lines, key+": "+formatDetail(row.result.Details[key]))
	}
	return strings.Join(lines, "<br>")
}

// writeRecommendations writes the advisory list.
func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, report *model.AnalysisReport) {
	if len(report.Recommendations) == 0 {
		return
	}

	md.H2("Recommendations")
	md.PlainText("")
	md.BulletList(report.Recommendations...)
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the risk distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Risk Distribution"),
		piechart.WithShowData(true),
	)

	if summary.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(summary.HighCount))
	}
	if summary.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(summary.MediumCount))
	}
	if summary.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(summary.LowCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [imgforensics](https://github.com/nao1215/imgforensics)*")
}
