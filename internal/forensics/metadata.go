package forensics

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// EXIF tag names read by MetadataAnalyzer.
const (
	TagExifImageWidth   = "ExifImageWidth"
	TagExifImageHeight  = "ExifImageHeight"
	TagSoftware         = "Software"
	TagDateTimeOriginal = "DateTimeOriginal"
	TagDateTime         = "DateTime"
	TagOrientation      = "Orientation"
)

// defaultOrientation is the EXIF orientation of an unrotated image.
const defaultOrientation = "1"

// MetadataConfig configures a MetadataAnalyzer.
type MetadataConfig struct {
	// Editors are lower-case substrings that identify editing software in
	// the Software tag.
	Editors []string

	// Increments added to the score when a check triggers.
	ResolutionIncrement  float64
	SoftwareIncrement    float64
	TimestampIncrement   float64
	OrientationIncrement float64
}

// DefaultEditors returns the editing software signatures checked by default.
func DefaultEditors() []string {
	return []string{
		"photoshop",
		"gimp",
		"lightroom",
		"snapseed",
		"canva",
		"pixlr",
		"paint.net",
		"affinity",
	}
}

// DefaultMetadataConfig returns the standard metadata heuristics.
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		Editors:              DefaultEditors(),
		ResolutionIncrement:  0.3,
		SoftwareIncrement:    0.4,
		TimestampIncrement:   0.2,
		OrientationIncrement: 0.1,
	}
}

// MetadataAnalyzer scores EXIF metadata for traces of editing.
// Every check is additive and only fires when the fields it needs are present;
// missing metadata is never treated as evidence.
type MetadataAnalyzer struct {
	cfg     MetadataConfig
	editors []string
}

// NewMetadataAnalyzer creates a MetadataAnalyzer from cfg.
func NewMetadataAnalyzer(cfg MetadataConfig) *MetadataAnalyzer {
	editors := make([]string, 0, len(cfg.Editors))
	for _, e := range cfg.Editors {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			editors = append(editors, e)
		}
	}
	return &MetadataAnalyzer{cfg: cfg, editors: editors}
}

// ID implements Analyzer.
func (a *MetadataAnalyzer) ID() AlgorithmID { return AlgorithmMetadata }

// Name implements Analyzer.
func (a *MetadataAnalyzer) Name() string { return "Metadata Consistency" }

// Description implements Analyzer.
func (a *MetadataAnalyzer) Description() string {
	return "EXIF metadata consistency and editing software detection"
}

// Validate checks that no increment is negative.
func (a *MetadataAnalyzer) Validate() error {
	for _, inc := range []float64{
		a.cfg.ResolutionIncrement,
		a.cfg.SoftwareIncrement,
		a.cfg.TimestampIncrement,
		a.cfg.OrientationIncrement,
	} {
		if inc < 0 {
			return fmt.Errorf("%w: metadata increments must not be negative", ErrInvalidThreshold)
		}
	}
	return nil
}

// Analyze implements Analyzer.
func (a *MetadataAnalyzer) Analyze(_ context.Context, in *Input) (Outcome, error) {
	var (
		score      float64
		indicators = []string{}
		checks     = []string{}
	)

	exif := in.Exif

	if w, h, ok := exifDimensions(exif); ok {
		checks = append(checks, "resolution")
		if w != in.Image.Width() || h != in.Image.Height() {
			score += a.cfg.ResolutionIncrement
			indicators = append(indicators, fmt.Sprintf(
				"Resolution mismatch: EXIF reports %dx%d but image is %dx%d",
				w, h, in.Image.Width(), in.Image.Height()))
		}
	}

	if software, ok := exif.Lookup(TagSoftware); ok {
		checks = append(checks, "software")
		lower := strings.ToLower(software)
		if slices.ContainsFunc(a.editors, func(e string) bool { return strings.Contains(lower, e) }) {
			score += a.cfg.SoftwareIncrement
			indicators = append(indicators, "Editing software detected: "+software)
		}
	}

	original, okOriginal := exif.Lookup(TagDateTimeOriginal)
	modified, okModified := exif.Lookup(TagDateTime)
	if okOriginal && okModified {
		checks = append(checks, "timestamp")
		if original != modified {
			score += a.cfg.TimestampIncrement
			indicators = append(indicators, fmt.Sprintf(
				"Timestamp mismatch: original %s, modified %s", original, modified))
		}
	}

	if orientation, ok := exif.Lookup(TagOrientation); ok {
		checks = append(checks, "orientation")
		if orientation != defaultOrientation {
			score += a.cfg.OrientationIncrement
			indicators = append(indicators, "Orientation modified: "+orientation)
		}
	}

	return Outcome{
		Score: clamp01(score),
		Details: map[string]any{
			"indicators":       indicators,
			"checks_performed": checks,
			"method":           "exif_consistency",
		},
	}, nil
}

// exifDimensions returns the EXIF width and height when both are present and
// parse as integers.
func exifDimensions(exif ExifRecord) (int, int, bool) {
	ws, okW := exif.Lookup(TagExifImageWidth)
	hs, okH := exif.Lookup(TagExifImageHeight)
	if !okW || !okH {
		return 0, 0, false
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}
