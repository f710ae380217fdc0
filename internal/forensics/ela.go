package forensics

import (
	"context"
	"fmt"
	"slices"
)

// consistencyEpsilon guards the ELA consistency ratio against a zero mean.
const consistencyEpsilon = 1e-8

// ELAConfig configures an ELAAnalyzer.
type ELAConfig struct {
	// Qualities are the JPEG qualities the image is re-encoded at.
	Qualities []int

	// Codec performs the re-encode round-trips. Nil means JPEGCodec.
	Codec Codec
}

// DefaultELAConfig returns the standard multi-quality ELA configuration.
func DefaultELAConfig() ELAConfig {
	return ELAConfig{
		Qualities: []int{70, 80, 90, 95},
		Codec:     JPEGCodec{},
	}
}

// ELAAnalyzer performs multi-quality error level analysis.
//
// A single-generation JPEG degrades predictably when re-encoded, so its error
// level moves smoothly with the quality. Edited or repeatedly compressed
// images produce erratic, quality-dependent error levels that lower the
// consistency factor.
type ELAAnalyzer struct {
	qualities []int
	codec     Codec
}

// NewELAAnalyzer creates an ELAAnalyzer from cfg.
func NewELAAnalyzer(cfg ELAConfig) *ELAAnalyzer {
	codec := cfg.Codec
	if codec == nil {
		codec = JPEGCodec{}
	}
	return &ELAAnalyzer{
		qualities: slices.Clone(cfg.Qualities),
		codec:     codec,
	}
}

// ID implements Analyzer.
func (a *ELAAnalyzer) ID() AlgorithmID { return AlgorithmELA }

// Name implements Analyzer.
func (a *ELAAnalyzer) Name() string { return "Enhanced ELA" }

// Description implements Analyzer.
func (a *ELAAnalyzer) Description() string {
	return "Multi-quality Error Level Analysis for JPEG compression artifacts"
}

// Validate checks the quality list.
func (a *ELAAnalyzer) Validate() error {
	return validateQualities(a.qualities)
}

// Analyze implements Analyzer.
func (a *ELAAnalyzer) Analyze(ctx context.Context, in *Input) (Outcome, error) {
	if len(a.qualities) == 0 {
		return Outcome{}, newAlgorithmError(a.ID(), ReasonUnsupportedInput, ErrNoQualities)
	}

	scores := make([]float64, 0, len(a.qualities))
	err := roundTripAll(ctx, a.ID(), a.codec, in.Image, a.qualities, func(_ int, decoded *RawImage) {
		scores = append(scores, elaQualityScore(absDiff(in.Image, decoded)))
	})
	if err != nil {
		return Outcome{}, err
	}

	mean, std := meanStd(scores)
	consistency := 1 - std/(mean+consistencyEpsilon)

	return Outcome{
		Score: clamp01(mean * consistency),
		Details: map[string]any{
			"qualities_tested": slices.Clone(a.qualities),
			"quality_scores":   scores,
			"consistency":      consistency,
			"method":           "multi_quality_ela",
		},
	}, nil
}

// elaQualityScore combines the difference statistics of one re-encode.
func elaQualityScore(s diffStats) float64 {
	return (s.mean + s.std/10 + s.max/255 + s.entropy/10) / 4
}

// validateQualities checks that qualities is non-empty and every entry is a
// valid JPEG quality.
func validateQualities(qualities []int) error {
	if len(qualities) == 0 {
		return ErrNoQualities
	}
	for _, q := range qualities {
		if q < 1 || q > 100 {
			return fmt.Errorf("%w: got %d", ErrInvalidQuality, q)
		}
	}
	return nil
}
