package forensics

import (
	"context"
	"math"
	"slices"
)

// JPEGQualityConfig configures a JPEGQualityAnalyzer.
type JPEGQualityConfig struct {
	// Qualities are the candidate original qualities, tested in order.
	Qualities []int

	// Codec performs the re-encode round-trips. Nil means JPEGCodec.
	Codec Codec
}

// DefaultJPEGQualityConfig returns the standard candidate quality list.
func DefaultJPEGQualityConfig() JPEGQualityConfig {
	return JPEGQualityConfig{
		Qualities: []int{50, 60, 70, 80, 90, 95},
		Codec:     JPEGCodec{},
	}
}

// JPEGQualityAnalyzer estimates the quality an image was last saved at and
// scores how far the image is from reproducing itself at that quality.
type JPEGQualityAnalyzer struct {
	qualities []int
	codec     Codec
}

// NewJPEGQualityAnalyzer creates a JPEGQualityAnalyzer from cfg.
func NewJPEGQualityAnalyzer(cfg JPEGQualityConfig) *JPEGQualityAnalyzer {
	codec := cfg.Codec
	if codec == nil {
		codec = JPEGCodec{}
	}
	return &JPEGQualityAnalyzer{
		qualities: slices.Clone(cfg.Qualities),
		codec:     codec,
	}
}

// ID implements Analyzer.
func (a *JPEGQualityAnalyzer) ID() AlgorithmID { return AlgorithmJPEGQuality }

// Name implements Analyzer.
func (a *JPEGQualityAnalyzer) Name() string { return "JPEG Quality Analysis" }

// Description implements Analyzer.
func (a *JPEGQualityAnalyzer) Description() string {
	return "JPEG compression quality consistency analysis"
}

// Validate checks the quality list.
func (a *JPEGQualityAnalyzer) Validate() error {
	return validateQualities(a.qualities)
}

// Analyze implements Analyzer.
func (a *JPEGQualityAnalyzer) Analyze(ctx context.Context, in *Input) (Outcome, error) {
	if len(a.qualities) == 0 {
		return Outcome{}, newAlgorithmError(a.ID(), ReasonUnsupportedInput, ErrNoQualities)
	}

	diffs := make([]float64, 0, len(a.qualities))
	err := roundTripAll(ctx, a.ID(), a.codec, in.Image, a.qualities, func(_ int, decoded *RawImage) {
		diffs = append(diffs, meanAbsDiff(in.Image, decoded))
	})
	if err != nil {
		return Outcome{}, err
	}

	// Ties resolve to the first (lowest listed) quality.
	best := 0
	for i, d := range diffs {
		if d < diffs[best] {
			best = i
		}
	}

	return Outcome{
		Score: math.Max(0, diffs[best]/255),
		Details: map[string]any{
			"estimated_original_quality": a.qualities[best],
			"qualities_tested":           slices.Clone(a.qualities),
			"mean_differences":           diffs,
			"method":                     "quality_estimation",
		},
	}, nil
}
