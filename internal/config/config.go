package config

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/imageio"
)

// Default configuration values.
const (
	// DefaultTimeout bounds each algorithm run.
	DefaultTimeout = forensics.DefaultTimeout

	// DefaultConcurrency is the number of files analyzed at once.
	// Each file already runs its algorithms in parallel.
	DefaultConcurrency = 4

	// DefaultMaxFileSize is the largest image file accepted.
	DefaultMaxFileSize = imageio.DefaultMaxSize

	// AppName is the application name used for XDG directory paths.
	AppName = "imgforensics"
)

// Config holds all configuration options for imgforensics.
// It is populated from CLI flags and the optional config file, then passed
// through the application rather than kept in global state.
type Config struct {
	// === Run Settings ===

	// Targets is the list of image files to analyze.
	Targets []string

	// Timeout bounds each algorithm run for each image.
	Timeout time.Duration

	// Concurrency is the number of files analyzed at once.
	Concurrency int

	// MaxFileSize is the largest image file accepted, in bytes.
	MaxFileSize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile's search order applies.
	ConfigFilePath string

	// === Output Settings ===

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Color enables colored risk labels in text reports.
	Color bool

	// MetricsFile, when set, receives Prometheus metrics in text format
	// after the run.
	MetricsFile string

	// === Algorithm Settings ===

	// Weights maps each algorithm to its aggregation weight.
	Weights map[forensics.AlgorithmID]float64

	// Disabled lists algorithms that are not run.
	Disabled []forensics.AlgorithmID

	// ELAQualities are the re-encode qualities for error level analysis.
	ELAQualities []int

	// JPEGQualities are the candidate qualities for quality estimation.
	JPEGQualities []int

	// Editors are the editing software signatures for metadata analysis.
	Editors []string

	// NoiseLowThreshold and NoiseHighThreshold bound noise score normalization.
	NoiseLowThreshold  float64
	NoiseHighThreshold float64
}

// NewConfig creates a new Config with default values.
// The algorithm defaults come from the forensics package.
func NewConfig() *Config {
	noise := forensics.DefaultNoiseConfig()
	return &Config{
		Timeout:            DefaultTimeout,
		Concurrency:        DefaultConcurrency,
		MaxFileSize:        DefaultMaxFileSize,
		Weights:            forensics.DefaultWeights(),
		ELAQualities:       forensics.DefaultELAConfig().Qualities,
		JPEGQualities:      forensics.DefaultJPEGQualityConfig().Qualities,
		Editors:            forensics.DefaultEditors(),
		NoiseLowThreshold:  noise.LowThreshold,
		NoiseHighThreshold: noise.HighThreshold,
	}
}

// XDGConfigDir returns the XDG config directory for imgforensics.
// On Linux: ~/.config/imgforensics
// On macOS: ~/Library/Application Support/imgforensics
// On Windows: %APPDATA%\imgforensics
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile merges the settings of a config file into c.
// Zero values in the file leave the current setting unchanged, except for
// noise thresholds, where only an absent key does.
func (c *Config) ApplyFile(f *File) error {
	if f == nil {
		return nil
	}

	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
	if f.MaxFileSize != 0 {
		c.MaxFileSize = f.MaxFileSize
	}

	for name, w := range f.Weights {
		id := forensics.AlgorithmID(name)
		if !id.Valid() {
			return fmt.Errorf("weights: %w: %q", forensics.ErrUnknownAlgorithm, name)
		}
		if c.Weights == nil {
			c.Weights = make(map[forensics.AlgorithmID]float64)
		}
		c.Weights[id] = w
	}

	for _, name := range f.Disabled {
		id := forensics.AlgorithmID(name)
		if !id.Valid() {
			return fmt.Errorf("disabled: %w: %q", forensics.ErrUnknownAlgorithm, name)
		}
		if !slices.Contains(c.Disabled, id) {
			c.Disabled = append(c.Disabled, id)
		}
	}

	if len(f.ELA.Qualities) > 0 {
		c.ELAQualities = slices.Clone(f.ELA.Qualities)
	}
	if len(f.JPEGQuality.Qualities) > 0 {
		c.JPEGQualities = slices.Clone(f.JPEGQuality.Qualities)
	}
	if len(f.Metadata.Editors) > 0 {
		c.Editors = slices.Clone(f.Metadata.Editors)
	}
	if f.Noise.LowThreshold != nil {
		c.NoiseLowThreshold = *f.Noise.LowThreshold
	}
	if f.Noise.HighThreshold != nil {
		c.NoiseHighThreshold = *f.Noise.HighThreshold
	}

	return nil
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error. Algorithm
// parameters are validated by forensics.NewEngine when the engine is built.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	for id, w := range c.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeight, id, w)
		}
	}

	if len(c.enabled()) == 0 {
		return ErrAllAlgorithmsDisabled
	}

	return nil
}

// enabled returns the algorithms that are not disabled, in registry order.
func (c *Config) enabled() []forensics.AlgorithmID {
	ids := make([]forensics.AlgorithmID, 0, len(forensics.AllAlgorithms()))
	for _, id := range forensics.AllAlgorithms() {
		if !slices.Contains(c.Disabled, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Bindings builds the analyzers for every enabled algorithm with the
// configured parameters and weights.
func (c *Config) Bindings() []forensics.Binding {
	defaults := forensics.DefaultWeights()

	bindings := make([]forensics.Binding, 0, len(forensics.AllAlgorithms()))
	for _, id := range c.enabled() {
		weight, ok := c.Weights[id]
		if !ok {
			weight = defaults[id]
		}
		bindings = append(bindings, forensics.Binding{
			Analyzer: c.analyzer(id),
			Weight:   weight,
		})
	}
	return bindings
}

// analyzer constructs the analyzer for id.
func (c *Config) analyzer(id forensics.AlgorithmID) forensics.Analyzer {
	switch id {
	case forensics.AlgorithmELA:
		cfg := forensics.DefaultELAConfig()
		if len(c.ELAQualities) > 0 {
			cfg.Qualities = c.ELAQualities
		}
		return forensics.NewELAAnalyzer(cfg)
	case forensics.AlgorithmMetadata:
		cfg := forensics.DefaultMetadataConfig()
		if len(c.Editors) > 0 {
			cfg.Editors = c.Editors
		}
		return forensics.NewMetadataAnalyzer(cfg)
	case forensics.AlgorithmNoise:
		cfg := forensics.DefaultNoiseConfig()
		cfg.LowThreshold = c.NoiseLowThreshold
		cfg.HighThreshold = c.NoiseHighThreshold
		return forensics.NewNoiseAnalyzer(cfg)
	default:
		cfg := forensics.DefaultJPEGQualityConfig()
		if len(c.JPEGQualities) > 0 {
			cfg.Qualities = c.JPEGQualities
		}
		return forensics.NewJPEGQualityAnalyzer(cfg)
	}
}

// NewEngine builds a forensics engine from the configuration.
// Extra options are applied after the configured timeout.
func (c *Config) NewEngine(opts ...forensics.Option) (*forensics.Engine, error) {
	all := append([]forensics.Option{forensics.WithTimeout(c.Timeout)}, opts...)
	engine, err := forensics.NewEngine(c.Bindings(), all...)
	if err != nil {
		return nil, fmt.Errorf("invalid algorithm configuration: %w", err)
	}
	return engine, nil
}
