// Package report renders analysis reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display, optionally colored
//   - JSONWriter and FullJSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with tables, alerts and a risk pie chart
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. WriteAll writes a
// batch of reports followed by its summary.
package report
