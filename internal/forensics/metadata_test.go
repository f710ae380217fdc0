package forensics

import (
	"context"
	"strings"
	"testing"
)

func TestMetadataAnalyzer(t *testing.T) {
	t.Parallel()

	img200 := mustRawImage(t, 200, 200, 1, make([]uint8, 200*200))

	tests := []struct {
		name       string
		exif       ExifRecord
		expected   float64
		indicators []string
	}{
		{
			name:     "no metadata",
			exif:     nil,
			expected: 0,
		},
		{
			name:       "editing software only",
			exif:       ExifRecord{"Software": "Adobe Photoshop 2023"},
			expected:   0.4,
			indicators: []string{"editing software"},
		},
		{
			name:       "resolution mismatch",
			exif:       ExifRecord{"ExifImageWidth": "100", "ExifImageHeight": "100"},
			expected:   0.3,
			indicators: []string{"resolution mismatch"},
		},
		{
			name:     "matching resolution",
			exif:     ExifRecord{"ExifImageWidth": "200", "ExifImageHeight": "200"},
			expected: 0,
		},
		{
			name:     "unparsable resolution never triggers",
			exif:     ExifRecord{"ExifImageWidth": "wide", "ExifImageHeight": "100"},
			expected: 0,
		},
		{
			name:     "only one dimension never triggers",
			exif:     ExifRecord{"ExifImageWidth": "100"},
			expected: 0,
		},
		{
			name:       "timestamp mismatch",
			exif:       ExifRecord{"DateTimeOriginal": "2023:01:01 10:00:00", "DateTime": "2023:02:01 10:00:00"},
			expected:   0.2,
			indicators: []string{"timestamp mismatch"},
		},
		{
			name:     "single timestamp never triggers",
			exif:     ExifRecord{"DateTime": "2023:02:01 10:00:00"},
			expected: 0,
		},
		{
			name:       "rotated orientation",
			exif:       ExifRecord{"Orientation": "6"},
			expected:   0.1,
			indicators: []string{"orientation modified"},
		},
		{
			name:     "default orientation",
			exif:     ExifRecord{"Orientation": "1"},
			expected: 0,
		},
		{
			name:     "camera software",
			exif:     ExifRecord{"Software": "Ver.1.00"},
			expected: 0,
		},
		{
			name: "everything at once clamps to one",
			exif: ExifRecord{
				"ExifImageWidth":   "4000",
				"ExifImageHeight":  "3000",
				"Software":         "GIMP 2.10",
				"DateTimeOriginal": "2023:01:01 10:00:00",
				"DateTime":         "2024:01:01 10:00:00",
				"Orientation":      "3",
			},
			expected: 1,
			indicators: []string{
				"resolution mismatch",
				"editing software",
				"timestamp mismatch",
				"orientation modified",
			},
		},
	}

	a := NewMetadataAnalyzer(DefaultMetadataConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Run(context.Background(), a, &Input{Image: img200, Exif: tt.exif})
			if !r.Success {
				t.Fatalf("expected success, got %q", r.Error)
			}
			if !almostEqual(r.Score, tt.expected) {
				t.Errorf("expected score %v, got %v", tt.expected, r.Score)
			}

			got, _ := r.Details["indicators"].([]string)
			if len(got) != len(tt.indicators) {
				t.Fatalf("expected %d indicators, got %v", len(tt.indicators), got)
			}
			for i, want := range tt.indicators {
				if !strings.Contains(strings.ToLower(got[i]), want) {
					t.Errorf("indicator %d = %q, expected it to mention %q", i, got[i], want)
				}
			}
		})
	}
}

func TestMetadataAnalyzerCustomEditors(t *testing.T) {
	t.Parallel()

	cfg := DefaultMetadataConfig()
	cfg.Editors = []string{"  PhotoLab "}
	a := NewMetadataAnalyzer(cfg)
	img := mustRawImage(t, 1, 1, 1, []uint8{0})

	r := Run(context.Background(), a, &Input{Image: img, Exif: ExifRecord{"Software": "DxO PhotoLab 7"}})
	if !almostEqual(r.Score, 0.4) {
		t.Errorf("expected custom editor to match, got %v", r.Score)
	}
	r = Run(context.Background(), a, &Input{Image: img, Exif: ExifRecord{"Software": "Adobe Photoshop"}})
	if r.Score != 0 {
		t.Errorf("expected default editors to be replaced, got %v", r.Score)
	}
}
