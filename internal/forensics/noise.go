package forensics

import (
	"context"
	"fmt"
	"math"
)

// NoiseConfig configures a NoiseAnalyzer.
type NoiseConfig struct {
	// LowThreshold and HighThreshold bound the linear normalization of the
	// robust coefficient of variation for an image of ReferencePixels pixels.
	// Both scale down linearly for smaller images.
	LowThreshold  float64
	HighThreshold float64

	// ReferencePixels is the pixel count at which thresholds apply unscaled.
	ReferencePixels float64

	// MinBlock and MaxBlock clamp the adaptive block size, which is
	// min(width, height) / BlockDivisor.
	MinBlock     int
	MaxBlock     int
	BlockDivisor int

	// MinBlockStd rejects near-flat blocks whose residual deviation is at or
	// below this value.
	MinBlockStd float64

	// MinBlocks is the number of retained blocks required for a non-zero score.
	MinBlocks int
}

// DefaultNoiseConfig returns the standard noise analysis configuration.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		LowThreshold:    0.3,
		HighThreshold:   1.2,
		ReferencePixels: 1_000_000,
		MinBlock:        32,
		MaxBlock:        64,
		BlockDivisor:    10,
		MinBlockStd:     1e-3,
		MinBlocks:       4,
	}
}

// Validate reports whether the configuration is usable.
func (c NoiseConfig) Validate() error {
	switch {
	case c.LowThreshold < 0 || c.HighThreshold <= c.LowThreshold:
		return fmt.Errorf("%w: noise thresholds must satisfy 0 <= low < high (got %g, %g)",
			ErrInvalidThreshold, c.LowThreshold, c.HighThreshold)
	case c.ReferencePixels <= 0:
		return fmt.Errorf("%w: reference pixel count must be positive", ErrInvalidThreshold)
	case c.MinBlock <= 0 || c.MaxBlock < c.MinBlock:
		return fmt.Errorf("%w: block bounds must satisfy 0 < min <= max (got %d, %d)",
			ErrInvalidThreshold, c.MinBlock, c.MaxBlock)
	case c.BlockDivisor <= 0:
		return fmt.Errorf("%w: block divisor must be positive", ErrInvalidThreshold)
	case c.MinBlocks <= 0:
		return fmt.Errorf("%w: minimum block count must be positive", ErrInvalidThreshold)
	}
	return nil
}

// NoiseAnalyzer looks for regions whose sensor noise differs from the rest
// of the frame. Camera noise has roughly uniform local variance; a spliced
// or re-rendered region shows up as blocks with unusual residual deviation.
type NoiseAnalyzer struct {
	cfg NoiseConfig
}

// NewNoiseAnalyzer creates a NoiseAnalyzer from cfg.
func NewNoiseAnalyzer(cfg NoiseConfig) *NoiseAnalyzer {
	return &NoiseAnalyzer{cfg: cfg}
}

// ID implements Analyzer.
func (a *NoiseAnalyzer) ID() AlgorithmID { return AlgorithmNoise }

// Name implements Analyzer.
func (a *NoiseAnalyzer) Name() string { return "Noise Pattern Analysis" }

// Description implements Analyzer.
func (a *NoiseAnalyzer) Description() string {
	return "Sensor noise pattern analysis for splicing detection"
}

// Validate checks the analyzer configuration.
func (a *NoiseAnalyzer) Validate() error {
	return a.cfg.Validate()
}

// Analyze implements Analyzer.
func (a *NoiseAnalyzer) Analyze(ctx context.Context, in *Input) (Outcome, error) {
	img := in.Image
	w, h := img.Width(), img.Height()

	residual := highPass(img.Luminance(), w, h)
	if err := ctx.Err(); err != nil {
		return Outcome{}, newAlgorithmError(a.ID(), ReasonCancelled, err)
	}

	bs := a.blockSize(w, h)
	step := max(1, bs/2)

	var analyzed int
	stds := make([]float64, 0, 64)
	for y := 0; y+bs <= h; y += step {
		for x := 0; x+bs <= w; x += step {
			analyzed++
			if s := blockStd(residual, w, x, y, bs); s > a.cfg.MinBlockStd {
				stds = append(stds, s)
			}
		}
	}

	var raw float64
	if len(stds) >= a.cfg.MinBlocks {
		raw = robustCV(stds)
	}

	return Outcome{
		Score: a.normalize(raw, img.PixelCount()),
		Details: map[string]any{
			"block_size":                bs,
			"blocks_analyzed":           analyzed,
			"blocks_retained":           len(stds),
			"raw_coefficient_variation": raw,
			"method":                    "robust_noise_variance",
		},
	}, nil
}

// blockSize returns the adaptive block edge length for a w x h image.
func (a *NoiseAnalyzer) blockSize(w, h int) int {
	bs := min(w, h) / a.cfg.BlockDivisor
	return min(a.cfg.MaxBlock, max(a.cfg.MinBlock, bs))
}

// normalize maps a raw coefficient onto [0,1] with size-scaled thresholds.
func (a *NoiseAnalyzer) normalize(raw float64, pixels int) float64 {
	sizeFactor := math.Min(1, float64(pixels)/a.cfg.ReferencePixels)
	low := a.cfg.LowThreshold * sizeFactor
	high := a.cfg.HighThreshold * sizeFactor

	switch {
	case raw <= low:
		return 0
	case raw >= high:
		return 1
	default:
		return clamp01((raw - low) / (high - low))
	}
}

// highPass convolves a w x h luminance plane with the 3x3 kernel that has 8
// at the center and -1 at every neighbor. Samples outside the frame count as
// zero and the output has the same size as the input.
func highPass(lum []float64, w, h int) []float64 {
	out := make([]float64, len(lum))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := lum[y*w+x]
			var neighbors float64
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
						continue
					}
					neighbors += lum[ny*w+nx]
				}
			}
			out[y*w+x] = 8*center - neighbors
		}
	}
	return out
}

// blockStd returns the population standard deviation of the bs x bs block
// of plane (row width w) whose top-left corner is (x0, y0).
func blockStd(plane []float64, w, x0, y0, bs int) float64 {
	var sum, sumSq float64
	for y := y0; y < y0+bs; y++ {
		for _, v := range plane[y*w+x0 : y*w+x0+bs] {
			sum += v
			sumSq += v * v
		}
	}
	n := float64(bs * bs)
	mean := sum / n
	return math.Sqrt(math.Max(0, sumSq/n-mean*mean))
}

// robustCV returns the median absolute deviation of values divided by their
// median, or 0 when the median is 0.
func robustCV(values []float64) float64 {
	med := median(values)
	if med == 0 {
		return 0
	}
	return medianAbsDeviation(values, med) / med
}
