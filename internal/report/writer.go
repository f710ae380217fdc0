package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/model"
)

// Writer defines the interface for report output.
// Implementations write analysis results in various formats.
type Writer interface {
	// Write outputs one file's report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AnalysisReport) (int, error)

	// WriteSummary outputs the batch summary.
	WriteSummary(summary *model.Summary) (int, error)
}

// batchWriter is implemented by writers that emit a whole batch as one
// document instead of one section per file.
type batchWriter interface {
	WriteBatch(reports []*model.AnalysisReport, summary *model.Summary) (int, error)
}

// WriteAll writes every report followed by the summary. The summary is
// omitted for a single report. Writers that produce a single document per
// batch receive everything in one call.
func WriteAll(w Writer, reports []*model.AnalysisReport, summary *model.Summary) (int, error) {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(reports, summary)
	}

	var total int
	for _, r := range reports {
		if r == nil {
			continue
		}
		n, err := w.Write(r)
		total += n
		if err != nil {
			return total, err
		}
	}

	if summary != nil && len(reports) > 1 {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.AnalysisReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// riskLabel returns the tier name for display, e.g. "High".
func riskLabel(level forensics.RiskLevel) string {
	return cases.Title(language.English).String(level.String())
}

// orderedResults returns the verdict's results in registry order.
func orderedResults(v *forensics.Verdict) []algorithmRow {
	if v == nil {
		return nil
	}

	rows := make([]algorithmRow, 0, len(v.AlgorithmDetails))
	for _, id := range forensics.AllAlgorithms() {
		res, ok := v.AlgorithmDetails[id]
		if !ok {
			continue
		}
		rows = append(rows, algorithmRow{id: id, result: res})
	}
	return rows
}

// algorithmRow pairs a result with its algorithm ID.
type algorithmRow struct {
	id     forensics.AlgorithmID
	result forensics.AlgorithmResult
}

// displayName prefers the analyzer's human name.
func (r algorithmRow) displayName() string {
	if r.result.Algorithm != "" {
		return r.result.Algorithm
	}
	return r.id.String()
}

// status returns "ok" or the failure reason.
func (r algorithmRow) status() string {
	if r.result.Success {
		return "ok"
	}
	reason := string(r.result.FailureReason())
	if reason == "" {
		reason = "failed"
	}
	return reason
}

// sortedDetailKeys returns the details map keys in stable order.
func sortedDetailKeys(details map[string]any) []string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatDetail renders an algorithm detail value compactly.
func formatDetail(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', 4, 64)
	case []float64:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = strconv.FormatFloat(f, 'f', 4, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		if len(val) == 0 {
			return "none"
		}
		return strings.Join(val, "; ")
	default:
		return fmt.Sprint(val)
	}
}

// formatScore renders a score with three decimals.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
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
