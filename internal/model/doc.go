// Package model defines the presentation-level data structures of imgforensics.
//
// This package contains the following main types:
//   - AnalysisReport: the result of analyzing one file, wrapping the engine verdict
//   - Summary: counts over a batch of reports
//
// Recommendations derives advisory text from a verdict. It is kept out of the
// forensics package because wording is a presentation concern.
//
// The models are serializable to JSON for report output.
package model
