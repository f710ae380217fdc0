package forensics

import (
	"context"
	"reflect"
	"testing"
)

func TestJPEGQualityAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("estimates the quality with the smallest difference", func(t *testing.T) {
		t.Parallel()

		// Distance from quality 80 in steps of ten.
		codec := offsetCodec{offset: func(q int) int {
			d := (q - 80) / 10
			if d < 0 {
				d = -d
			}
			return d
		}}
		a := NewJPEGQualityAnalyzer(JPEGQualityConfig{Qualities: []int{50, 60, 70, 80, 90, 95}, Codec: codec})
		img := mustRawImage(t, 4, 4, 1, make([]uint8, 16))

		r := Run(context.Background(), a, &Input{Image: img})
		if !r.Success {
			t.Fatalf("expected success, got %q", r.Error)
		}
		if r.Details["estimated_original_quality"] != 80 {
			t.Errorf("expected estimated quality 80, got %v", r.Details["estimated_original_quality"])
		}
		if r.Score != 0 {
			t.Errorf("expected score 0 at an exact match, got %v", r.Score)
		}
	})

	t.Run("ties resolve to the first quality", func(t *testing.T) {
		t.Parallel()

		a := NewJPEGQualityAnalyzer(JPEGQualityConfig{
			Qualities: []int{60, 70, 80},
			Codec:     offsetCodec{offset: func(int) int { return 51 }},
		})
		img := mustRawImage(t, 2, 2, 1, make([]uint8, 4))

		r := Run(context.Background(), a, &Input{Image: img})
		if r.Details["estimated_original_quality"] != 60 {
			t.Errorf("expected 60, got %v", r.Details["estimated_original_quality"])
		}
		if !almostEqual(r.Score, 0.2) {
			t.Errorf("expected 51/255 = 0.2, got %v", r.Score)
		}
	})

	t.Run("real JPEG round-trips are deterministic", func(t *testing.T) {
		t.Parallel()

		a := NewJPEGQualityAnalyzer(DefaultJPEGQualityConfig())
		img := mustRawImage(t, 64, 64, 3, gradientRGB(64, 64))

		first := Run(context.Background(), a, &Input{Image: img})
		second := Run(context.Background(), a, &Input{Image: img})
		if !first.Success {
			t.Fatalf("expected success, got %q", first.Error)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("expected identical results, got %+v and %+v", first, second)
		}
		diffs, _ := first.Details["mean_differences"].([]float64)
		if len(diffs) != 6 {
			t.Errorf("expected 6 mean differences, got %v", first.Details["mean_differences"])
		}
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		a := NewJPEGQualityAnalyzer(DefaultJPEGQualityConfig())
		img := mustRawImage(t, 8, 8, 1, make([]uint8, 64))

		r := Run(ctx, a, &Input{Image: img})
		if r.Success {
			t.Fatal("expected failure for cancelled context")
		}
		if r.FailureReason() != ReasonCancelled {
			t.Errorf("expected reason %s, got %s", ReasonCancelled, r.FailureReason())
		}
	})
}
