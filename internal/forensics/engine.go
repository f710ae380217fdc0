package forensics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each analyzer run when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Binding pairs an analyzer with its aggregation weight.
type Binding struct {
	Analyzer Analyzer
	Weight   float64
}

// DefaultWeights returns the standard aggregation weights.
func DefaultWeights() map[AlgorithmID]float64 {
	return map[AlgorithmID]float64{
		AlgorithmELA:         0.35,
		AlgorithmMetadata:    0.25,
		AlgorithmNoise:       0.20,
		AlgorithmJPEGQuality: 0.20,
	}
}

// DefaultBindings returns the four standard analyzers with default
// configuration and weights, in reporting order.
func DefaultBindings() []Binding {
	w := DefaultWeights()
	return []Binding{
		{Analyzer: NewELAAnalyzer(DefaultELAConfig()), Weight: w[AlgorithmELA]},
		{Analyzer: NewMetadataAnalyzer(DefaultMetadataConfig()), Weight: w[AlgorithmMetadata]},
		{Analyzer: NewNoiseAnalyzer(DefaultNoiseConfig()), Weight: w[AlgorithmNoise]},
		{Analyzer: NewJPEGQualityAnalyzer(DefaultJPEGQualityConfig()), Weight: w[AlgorithmJPEGQuality]},
	}
}

// Algorithms returns the registry of built-in algorithms with their default
// weights, in reporting order.
func Algorithms() []AlgorithmInfo {
	return describe(DefaultBindings())
}

func describe(bindings []Binding) []AlgorithmInfo {
	infos := make([]AlgorithmInfo, 0, len(bindings))
	for _, b := range bindings {
		infos = append(infos, AlgorithmInfo{
			ID:          b.Analyzer.ID(),
			Name:        b.Analyzer.Name(),
			Description: b.Analyzer.Description(),
			Weight:      b.Weight,
		})
	}
	return infos
}

// Engine runs a fixed set of analyzers concurrently and combines their
// scores into a Verdict. An Engine holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	bindings []Binding
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-analyzer timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger used for analyzer diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine validates bindings and creates an Engine.
// Validation failures are configuration mistakes and are reported here so
// that Analyze never has to.
func NewEngine(bindings []Binding, opts ...Option) (*Engine, error) {
	if len(bindings) == 0 {
		return nil, ErrNoAnalyzers
	}

	seen := make(map[AlgorithmID]struct{}, len(bindings))
	var total float64
	for i, b := range bindings {
		if b.Analyzer == nil {
			return nil, fmt.Errorf("binding %d: %w", i, ErrNilAnalyzer)
		}
		id := b.Analyzer.ID()
		if b.Weight < 0 || math.IsNaN(b.Weight) || math.IsInf(b.Weight, 0) {
			return nil, fmt.Errorf("%s: %w (got %g)", id, ErrNegativeWeight, b.Weight)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%s: %w", id, ErrDuplicateAlgorithm)
		}
		seen[id] = struct{}{}
		if v, ok := b.Analyzer.(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", id, err)
			}
		}
		total += b.Weight
	}
	if total <= 0 {
		return nil, ErrZeroTotalWeight
	}

	e := &Engine{
		bindings: append([]Binding(nil), bindings...),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// NewDefaultEngine creates an Engine with DefaultBindings.
func NewDefaultEngine(opts ...Option) (*Engine, error) {
	return NewEngine(DefaultBindings(), opts...)
}

// Algorithms describes the engine's bound analyzers in binding order.
func (e *Engine) Algorithms() []AlgorithmInfo {
	return describe(e.bindings)
}

// Timeout returns the per-analyzer timeout.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// Analyze runs every bound analyzer against img and exif and returns the
// combined verdict. It never returns an error: analyzer failures, timeouts
// and panics are reported as failed results inside the verdict.
func (e *Engine) Analyze(ctx context.Context, img *RawImage, exif ExifRecord) Verdict {
	in := &Input{Image: img, Exif: exif}
	results := make([]AlgorithmResult, len(e.bindings))

	var g errgroup.Group
	for i, b := range e.bindings {
		g.Go(func() error {
			results[i] = e.runOne(ctx, b.Analyzer, in)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return an error

	v := e.aggregate(results)
	e.metrics.observeVerdict(v)
	return v
}

// runOne runs a single analyzer under the engine timeout.
func (e *Engine) runOne(ctx context.Context, a Analyzer, in *Input) AlgorithmResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan AlgorithmResult, 1)
	go func() {
		done <- Run(ctx, a, in)
	}()

	var result AlgorithmResult
	select {
	case result = <-done:
	case <-ctx.Done():
		result = failed(a.Name(), newAlgorithmError(a.ID(), ReasonTimeout, ctx.Err()))
	}
	elapsed := time.Since(start)

	e.metrics.observeAnalyzer(a.ID(), elapsed, result)
	if result.Success {
		e.logger.Debug("analyzer finished",
			"algorithm", a.ID(),
			"score", result.Score,
			"elapsed", elapsed,
		)
	} else {
		e.logger.Warn("analyzer failed",
			"algorithm", a.ID(),
			"reason", result.FailureReason(),
			"error", result.Error,
		)
	}
	return result
}

// aggregate combines results in binding order. Failed analyzers are left
// out of both the weighted sum and the weight total.
func (e *Engine) aggregate(results []AlgorithmResult) Verdict {
	v := Verdict{
		IndividualScores: make(map[AlgorithmID]float64, len(results)),
		AlgorithmDetails: make(map[AlgorithmID]AlgorithmResult, len(results)),
	}

	var weighted, weights float64
	for i, b := range e.bindings {
		id := b.Analyzer.ID()
		r := results[i]
		v.IndividualScores[id] = r.Score
		v.AlgorithmDetails[id] = r
		if r.Success {
			weighted += b.Weight * r.Score
			weights += b.Weight
		}
	}

	if weights > 0 {
		v.FinalScore = clamp01(weighted / weights)
	}
	v.RiskLevel = ClassifyRisk(v.FinalScore)
	v.IsPotentiallyEdited = IsPotentiallyEdited(v.FinalScore)
	return v
}
