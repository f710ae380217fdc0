package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/imgforensics/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one report as a JSON document.
func (w *JSONWriter) Write(report *model.AnalysisReport) (int, error) {
	return w.writeJSON(report)
}

// WriteSummary outputs the summary as a JSON document.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.writeJSON(summary)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a batch of reports with tool metadata.
type JSONReport struct {
	// Version is the imgforensics version that generated this report.
	Version string `json:"version"`

	// Reports holds one entry per analyzed file, in input order.
	Reports []*model.AnalysisReport `json:"reports"`

	// Summary is the batch summary.
	Summary *model.Summary `json:"summary,omitempty"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(reports []*model.AnalysisReport, summary *model.Summary, version string) *JSONReport {
	if reports == nil {
		reports = []*model.AnalysisReport{}
	}
	return &JSONReport{
		Version: version,
		Reports: reports,
		Summary: summary,
	}
}

// FullJSONWriter outputs a whole batch as one JSON document.
type FullJSONWriter struct {
	*JSONWriter

	// version is the imgforensics version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs a single report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.AnalysisReport) (int, error) {
	return w.WriteBatch([]*model.AnalysisReport{report}, nil)
}

// WriteBatch outputs every report and the summary as one document.
func (w *FullJSONWriter) WriteBatch(reports []*model.AnalysisReport, summary *model.Summary) (int, error) {
	return w.writeJSON(NewJSONReport(reports, summary, w.version))
}
