package forensics

import (
	"encoding/json"
	"fmt"
)

// AlgorithmID identifies one forensic technique in verdicts and configuration.
type AlgorithmID string

// The closed set of algorithms the engine knows about.
const (
	// AlgorithmELA is multi-quality error level analysis.
	AlgorithmELA AlgorithmID = "ela"

	// AlgorithmMetadata is EXIF metadata consistency checking.
	AlgorithmMetadata AlgorithmID = "metadata_consistency"

	// AlgorithmNoise is sensor noise pattern consistency analysis.
	AlgorithmNoise AlgorithmID = "noise_pattern"

	// AlgorithmJPEGQuality is JPEG compression quality consistency analysis.
	AlgorithmJPEGQuality AlgorithmID = "jpeg_quality"
)

// AllAlgorithms lists every algorithm in the order the engine reports them.
func AllAlgorithms() []AlgorithmID {
	return []AlgorithmID{
		AlgorithmELA,
		AlgorithmMetadata,
		AlgorithmNoise,
		AlgorithmJPEGQuality,
	}
}

// Valid reports whether id is one of the known algorithms.
func (id AlgorithmID) Valid() bool {
	switch id {
	case AlgorithmELA, AlgorithmMetadata, AlgorithmNoise, AlgorithmJPEGQuality:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (id AlgorithmID) String() string {
	return string(id)
}

// AlgorithmInfo describes a registered algorithm for listings.
type AlgorithmInfo struct {
	ID          AlgorithmID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Weight      float64     `json:"weight"`
}

// AlgorithmResult is the outcome of one analyzer invocation.
// Score is always within [0,1]. A failed analyzer has Success=false,
// Score=0 and a non-empty Error.
type AlgorithmResult struct {
	Score     float64        `json:"score"`
	Success   bool           `json:"success"`
	Algorithm string         `json:"algorithm_name"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`

	reason Reason
}

// FailureReason returns why the analyzer failed, or the empty Reason on success.
func (r AlgorithmResult) FailureReason() Reason {
	return r.reason
}

// succeeded builds a successful result, clamping the score.
func succeeded(name string, o Outcome) AlgorithmResult {
	return AlgorithmResult{
		Score:     clamp01(o.Score),
		Success:   true,
		Algorithm: name,
		Details:   o.Details,
	}
}

// failed builds a failed result from err.
func failed(name string, err error) AlgorithmResult {
	return AlgorithmResult{
		Score:     0,
		Success:   false,
		Algorithm: name,
		Error:     err.Error(),
		reason:    reasonOf(err),
	}
}

// Outcome is what an analyzer computes on success.
type Outcome struct {
	// Score is the raw manipulation score. It is clamped into [0,1] when
	// converted to an AlgorithmResult.
	Score float64

	// Details carries technique-specific evidence.
	Details map[string]any
}

// RiskLevel is the coarse classification of a final score.
type RiskLevel int

const (
	// RiskLow means the combined score is below 0.3.
	RiskLow RiskLevel = iota

	// RiskMedium means the combined score is in [0.3, 0.6).
	RiskMedium

	// RiskHigh means the combined score is 0.6 or above.
	RiskHigh
)

// Risk tier boundaries and the edited-flag threshold.
const (
	MediumRiskThreshold = 0.3
	HighRiskThreshold   = 0.6

	// EditedThreshold is the score above which a verdict is flagged as
	// potentially edited. It is intentionally independent of the risk tiers.
	EditedThreshold = 0.4
)

// ClassifyRisk maps a final score onto a risk tier.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score < MediumRiskThreshold:
		return RiskLow
	case score < HighRiskThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// IsPotentiallyEdited reports whether a final score crosses EditedThreshold.
func IsPotentiallyEdited(score float64) bool {
	return score > EditedThreshold
}

// String returns the lower-case tier name.
func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseRiskLevel parses the output of RiskLevel.String.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch s {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return RiskLow, fmt.Errorf("unknown risk level %q", s)
	}
}

// MarshalJSON encodes the tier as its string name.
func (l RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a tier from its string name.
func (l *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Verdict is the combined result of one engine run.
type Verdict struct {
	IndividualScores    map[AlgorithmID]float64         `json:"individual_scores"`
	AlgorithmDetails    map[AlgorithmID]AlgorithmResult `json:"algorithm_details"`
	FinalScore          float64                         `json:"final_score"`
	RiskLevel           RiskLevel                       `json:"risk_level"`
	IsPotentiallyEdited bool                            `json:"is_potentially_edited"`
}

// AllFailed reports whether no analyzer succeeded. A verdict in this state
// scores 0 and reads "low" without any evidence behind it.
func (v Verdict) AllFailed() bool {
	for _, r := range v.AlgorithmDetails {
		if r.Success {
			return false
		}
	}
	return true
}
