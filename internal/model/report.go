package model

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/imgforensics/internal/forensics"
)

// AnalysisReport is the result of analyzing one image file.
// It wraps the engine verdict with file information and presentation fields.
type AnalysisReport struct {
	// === File Information ===

	// ID uniquely identifies this analysis run.
	ID string `json:"id"`

	// Filename is the path or name of the analyzed file.
	Filename string `json:"filename"`

	// Format is the decoder that recognized the file (jpeg, png, ...).
	Format string `json:"format,omitempty"`

	// Width and Height are the decoded pixel dimensions.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// SizeBytes is the encoded file size.
	SizeBytes int `json:"size_bytes"`

	// SHA3 is the hex SHA3-256 digest of the file contents.
	SHA3 string `json:"sha3_256,omitempty"` //nolint:tagliatelle // digest algorithm name

	// DateAnalyzed is when the analysis started.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// === Verdict Summary ===

	// IsPotentiallyEdited mirrors the verdict flag.
	IsPotentiallyEdited bool `json:"is_potentially_edited"`

	// ConfidenceScore is the final score rounded to three decimals.
	ConfidenceScore float64 `json:"confidence_score"`

	// RiskLevel is the verdict risk tier.
	RiskLevel forensics.RiskLevel `json:"risk_level"`

	// AnalysisDetails holds the individual algorithm scores.
	AnalysisDetails map[forensics.AlgorithmID]float64 `json:"analysis_details,omitempty"`

	// DetectionMethods lists the algorithms that were run.
	DetectionMethods []forensics.AlgorithmID `json:"detection_methods,omitempty"`

	// Recommendations are advisory strings derived from the scores.
	Recommendations []string `json:"recommendations,omitempty"`

	// Verdict is the complete engine output including per-algorithm details.
	Verdict *forensics.Verdict `json:"verdict,omitempty"`

	// === Input Metadata ===

	// Exif holds the extracted metadata. It is not serialized because it
	// may contain location and device identifiers.
	Exif forensics.ExifRecord `json:"-"`

	// === Run State ===

	// TimedOut is true if the run was cancelled before completing.
	TimedOut bool `json:"timed_out,omitempty"`

	// Error contains the failure that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewAnalysisReport creates an empty report for filename.
func NewAnalysisReport(filename string) *AnalysisReport {
	return &AnalysisReport{
		ID:           uuid.NewString(),
		Filename:     filename,
		DateAnalyzed: time.Now(),
	}
}

// ApplyVerdict copies the verdict into the report's summary fields.
func (r *AnalysisReport) ApplyVerdict(v forensics.Verdict, methods []forensics.AlgorithmID) {
	r.Verdict = &v
	r.IsPotentiallyEdited = v.IsPotentiallyEdited
	r.ConfidenceScore = roundScore(v.FinalScore)
	r.RiskLevel = v.RiskLevel
	r.AnalysisDetails = v.IndividualScores
	r.DetectionMethods = append([]forensics.AlgorithmID(nil), methods...)
}

// SetError records err as the run failure.
func (r *AnalysisReport) SetError(err error) {
	if err == nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}

// Failed reports whether the run ended without a verdict.
func (r *AnalysisReport) Failed() bool {
	return r.Verdict == nil
}

// roundScore rounds a score to three decimals for display.
func roundScore(v float64) float64 {
	return math.Round(v*1000) / 1000
}
