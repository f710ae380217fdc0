package forensics

import (
	"math"
	"slices"
)

// entropyEpsilon smooths histogram probabilities before the logarithm.
const entropyEpsilon = 1e-8

// clamp01 limits v to [0,1]. NaN maps to 0.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// meanStd returns the mean and population standard deviation of values.
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(values)))
}

// median returns the median of values without modifying them.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// medianAbsDeviation returns the median of |v - center| over values.
func medianAbsDeviation(values []float64, center float64) float64 {
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - center)
	}
	return median(dev)
}

// diffStats summarizes the per-sample absolute difference between two images.
type diffStats struct {
	mean    float64
	std     float64
	max     float64
	entropy float64
}

// absDiff computes the absolute difference statistics between a and b.
// Both images must have the same dimensions and channel count.
func absDiff(a, b *RawImage) diffStats {
	var (
		hist  [256]int
		sum   float64
		sumSq float64
		maxD  uint8
	)
	for i, av := range a.pix {
		bv := b.pix[i]
		d := av - bv
		if bv > av {
			d = bv - av
		}
		hist[histogramBin(d)]++
		fd := float64(d)
		sum += fd
		sumSq += fd * fd
		if d > maxD {
			maxD = d
		}
	}

	n := float64(len(a.pix))
	mean := sum / n
	variance := math.Max(0, sumSq/n-mean*mean)

	return diffStats{
		mean:    mean,
		std:     math.Sqrt(variance),
		max:     float64(maxD),
		entropy: histogramEntropy(hist[:], len(a.pix)),
	}
}

// histogramBin maps an 8-bit value onto 256 equal-width bins spanning [0,255].
// The last bin is closed so that 255 lands in bin 255.
func histogramBin(v uint8) int {
	bin := int(v) * 256 / 255
	if bin > 255 {
		bin = 255
	}
	return bin
}

// histogramEntropy returns the Shannon entropy in bits of a histogram.
func histogramEntropy(hist []int, total int) float64 {
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p+entropyEpsilon)
	}
	return h
}

// meanAbsDiff returns the mean absolute per-sample difference between a and b.
func meanAbsDiff(a, b *RawImage) float64 {
	var sum int64
	for i, av := range a.pix {
		d := int64(av) - int64(b.pix[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float64(sum) / float64(len(a.pix))
}
