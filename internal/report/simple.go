package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Risk tiers are colored when color is enabled.
type SimpleWriter struct {
	baseWriter

	// verbose adds per-algorithm details.
	verbose bool

	// colorize enables ANSI colors for risk labels.
	colorize bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithColor enables or disables colored risk labels.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.colorize = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
// Color is off unless WithColor(true) is given.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one report in human-readable format.
func (w *SimpleWriter) Write(report *model.AnalysisReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	if !report.Failed() {
		w.writeVerdict(&sb, report)
		w.writeAlgorithms(&sb, report)
		w.writeRecommendations(&sb, report)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the batch summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	writeSection(&sb, "BATCH SUMMARY")
	sb.WriteString(fmt.Sprintf("  Files:         %d\n", summary.Total))
	sb.WriteString(fmt.Sprintf("  Analyzed:      %d\n", summary.Analyzed()))
	sb.WriteString(fmt.Sprintf("  Failed:        %d\n", summary.FailedCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %s %d\n", w.paint(forensics.RiskHigh, "HIGH:  "), summary.HighCount))
	sb.WriteString(fmt.Sprintf("  %s %d\n", w.paint(forensics.RiskMedium, "MEDIUM:"), summary.MediumCount))
	sb.WriteString(fmt.Sprintf("  %s %d\n", w.paint(forensics.RiskLow, "LOW:   "), summary.LowCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Potentially edited: %d\n", summary.EditedCount))
	if summary.InconclusiveCount > 0 {
		sb.WriteString(fmt.Sprintf("  Inconclusive:       %d (every algorithm failed)\n", summary.InconclusiveCount))
	}
	for _, id := range forensics.AllAlgorithms() {
		if n := summary.AlgorithmFailures[id]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %s failures: %d\n", id, n))
		}
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the file information block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AnalysisReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                     IMAGE FORENSICS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("File:           %s\n", report.Filename))
	if report.Format != "" {
		sb.WriteString(fmt.Sprintf("Format:         %s (%dx%d, %d bytes)\n",
			report.Format, report.Width, report.Height, report.SizeBytes))
	}
	if report.SHA3 != "" {
		sb.WriteString(fmt.Sprintf("SHA3-256:       %s\n", report.SHA3))
	}
	sb.WriteString(fmt.Sprintf("Analyzed:       %s\n", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")))

	switch {
	case report.TimedOut:
		sb.WriteString("Status:         TIMED OUT\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.ErrorMessage))
	case report.Verdict != nil && report.Verdict.AllFailed():
		sb.WriteString("Status:         INCONCLUSIVE (every algorithm failed)\n")
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

// writeVerdict writes the final score and risk tier.
func (w *SimpleWriter) writeVerdict(sb *strings.Builder, report *model.AnalysisReport) {
	writeSection(sb, "VERDICT")

	edited := "no"
	if report.IsPotentiallyEdited {
		edited = "yes"
	}
	label := strings.ToUpper(report.RiskLevel.String())
	sb.WriteString(fmt.Sprintf("  Risk Level:         %s\n", w.paint(report.RiskLevel, label)))
	sb.WriteString(fmt.Sprintf("  Confidence Score:   %s\n", formatScore(report.ConfidenceScore)))
	sb.WriteString(fmt.Sprintf("  Potentially Edited: %s\n", edited))
	sb.WriteString("\n")
}

// writeAlgorithms writes one line per algorithm, plus details when verbose.
func (w *SimpleWriter) writeAlgorithms(sb *strings.Builder, report *model.AnalysisReport) {
	writeSection(sb, "ALGORITHMS")

	for _, row := range orderedResults(report.Verdict) {
		if row.result.Success {
			sb.WriteString(fmt.Sprintf("  [+] %-28s %s\n", row.displayName(), formatScore(row.result.Score)))
		} else {
			sb.WriteString(fmt.Sprintf("  [x] %-28s failed (%s)\n", row.displayName(), row.status()))
			if w.verbose && row.result.Error != "" {
				sb.WriteString(fmt.Sprintf("      Error: %s\n", row.result.Error))
			}
		}

		if !w.verbose {
			continue
		}
		for _, key := range sortedDetailKeys(row.result.Details) {
			sb.WriteString(fmt.Sprintf("      %s: %s\n", key, formatDetail(row.result.Details[key])))
		}
	}
	sb.WriteString("\n")
}

// writeRecommendations writes the advisory list.
func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, report *model.AnalysisReport) {
	if len(report.Recommendations) == 0 {
		return
	}

	writeSection(sb, "RECOMMENDATIONS")
	for _, rec := range report.Recommendations {
		sb.WriteString(fmt.Sprintf("  * %s\n", rec))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Scores are indicators, not proof. Review flagged images manually.\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// paint colors s according to the risk tier when color is enabled.
func (w *SimpleWriter) paint(level forensics.RiskLevel, s string) string {
	if !w.colorize {
		return s
	}

	var c *color.Color
	switch level {
	case forensics.RiskHigh:
		c = color.New(color.FgRed, color.Bold)
	case forensics.RiskMedium:
		c = color.New(color.FgYellow, color.Bold)
	default:
		c = color.New(color.FgGreen)
	}
	// EnableColor bypasses the global NoColor terminal check.
	c.EnableColor()
	return c.Sprint(s)
}

// writeSection writes a dashed section header.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
