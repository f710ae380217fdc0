package config

import (
	"time"
)

// QualityConfig lists JPEG qualities used by a re-encoding analyzer.
type QualityConfig struct {
	// Qualities replaces the analyzer's default quality list when non-empty.
	Qualities []int `yaml:"qualities,omitempty"`
}

// MetadataConfig customizes EXIF heuristics.
type MetadataConfig struct {
	// Editors replaces the list of editing software signatures when non-empty.
	// Matching is a case-insensitive substring match on the Software tag.
	Editors []string `yaml:"editors,omitempty"`
}

// NoiseConfig customizes the noise score normalization.
// Nil thresholds keep the default; zero is a valid threshold.
type NoiseConfig struct {
	// LowThreshold is the coefficient of variation that maps to a score of 0
	// for a one megapixel image.
	LowThreshold *float64 `yaml:"lowThreshold,omitempty"`

	// HighThreshold is the coefficient of variation that maps to a score of 1
	// for a one megapixel image.
	HighThreshold *float64 `yaml:"highThreshold,omitempty"`
}

// File represents the structure of the .imgforensics configuration file.
// Every field is optional; zero values leave the built-in default in place
// except where a field is a pointer.
type File struct {
	// Timeout bounds each algorithm run, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Concurrency is the number of files analyzed at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// MaxFileSize is the largest accepted file in bytes.
	MaxFileSize int64 `yaml:"maxFileSize,omitempty"`

	// Weights overrides aggregation weights by algorithm ID.
	Weights map[string]float64 `yaml:"weights,omitempty"`

	// Disabled lists algorithm IDs that should not run.
	Disabled []string `yaml:"disabled,omitempty"`

	// ELA configures error level analysis.
	ELA QualityConfig `yaml:"ela,omitempty"`

	// JPEGQuality configures JPEG quality estimation.
	JPEGQuality QualityConfig `yaml:"jpegQuality,omitempty"`

	// Metadata configures EXIF consistency checks.
	Metadata MetadataConfig `yaml:"metadata,omitempty"`

	// Noise configures noise pattern analysis.
	Noise NoiseConfig `yaml:"noise,omitempty"`
}
