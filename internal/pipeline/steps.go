package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/imageio"
	seclog "github.com/nao1215/imgforensics/internal/log"
	"github.com/nao1215/imgforensics/internal/model"
)

// ErrNotDecoded is returned when the forensics step runs before decoding.
var ErrNotDecoded = errors.New("image has not been decoded")

// LoadStep reads the job's file into memory.
type LoadStep struct {
	// maxSize is the largest file accepted, in bytes.
	maxSize int64
}

// NewLoadStep creates a load step that refuses files larger than maxSize.
// A non-positive maxSize means imageio.DefaultMaxSize.
func NewLoadStep(maxSize int64) *LoadStep {
	if maxSize <= 0 {
		maxSize = imageio.DefaultMaxSize
	}
	return &LoadStep{maxSize: maxSize}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do reads the file unless the job already carries data.
func (s *LoadStep) Do(_ context.Context, job *Job) error {
	if job.Data != nil {
		return nil
	}

	data, err := imageio.Load(job.Path, s.maxSize)
	if err != nil {
		return err
	}

	job.Data = data
	return nil
}

// DecodeStep decodes the loaded bytes and extracts EXIF metadata.
type DecodeStep struct {
	logger *slog.Logger
}

// DecodeStepOption configures a DecodeStep.
type DecodeStepOption func(*DecodeStep)

// WithDecodeLogger sets a custom logger for the decode step.
func WithDecodeLogger(logger *slog.Logger) DecodeStepOption {
	return func(s *DecodeStep) {
		s.logger = logger
	}
}

// NewDecodeStep creates a decode step.
func NewDecodeStep(opts ...DecodeStepOption) *DecodeStep {
	s := &DecodeStep{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DecodeStep) Name() string {
	return "decode"
}

// Do decodes job.Data and fills in the report's file information.
func (s *DecodeStep) Do(_ context.Context, job *Job) error {
	decoded, err := imageio.Decode(job.Data)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Path, err)
	}

	job.Decoded = decoded
	r := job.Report
	r.Format = decoded.Format
	r.SizeBytes = decoded.Size
	r.SHA3 = decoded.SHA3
	r.Width = decoded.Image.Width()
	r.Height = decoded.Image.Height()
	r.Exif = decoded.Exif

	s.logger.Debug("decoded image",
		"file", job.Path,
		"format", decoded.Format,
		"width", r.Width,
		"height", r.Height,
		seclog.ExifAttrs(decoded.Exif),
	)

	// Encoded bytes are no longer needed and can be large.
	job.Data = nil
	return nil
}

// ForensicsStep runs the forensics engine on the decoded image.
type ForensicsStep struct {
	engine *forensics.Engine
	logger *slog.Logger
}

// ForensicsStepOption configures a ForensicsStep.
type ForensicsStepOption func(*ForensicsStep)

// WithForensicsLogger sets a custom logger for the forensics step.
func WithForensicsLogger(logger *slog.Logger) ForensicsStepOption {
	return func(s *ForensicsStep) {
		s.logger = logger
	}
}

// NewForensicsStep creates a forensics step around engine.
func NewForensicsStep(engine *forensics.Engine, opts ...ForensicsStepOption) *ForensicsStep {
	s := &ForensicsStep{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ForensicsStep) Name() string {
	return "forensics"
}

// Do analyzes the decoded image. Analyzer failures end up inside the verdict;
// only a missing decode is an error here.
func (s *ForensicsStep) Do(ctx context.Context, job *Job) error {
	if job.Decoded == nil {
		return ErrNotDecoded
	}

	verdict := s.engine.Analyze(ctx, job.Decoded.Image, job.Decoded.Exif)

	methods := make([]forensics.AlgorithmID, 0, len(verdict.AlgorithmDetails))
	for _, info := range s.engine.Algorithms() {
		methods = append(methods, info.ID)
	}
	job.Report.ApplyVerdict(verdict, methods)

	s.logger.Info("image analyzed",
		"file", job.Path,
		"score", verdict.FinalScore,
		"risk_level", verdict.RiskLevel,
	)
	if verdict.AllFailed() {
		s.logger.Warn("every algorithm failed; verdict is inconclusive", "file", job.Path)
	}
	return nil
}

// RecommendStep attaches advisory text to the report.
type RecommendStep struct{}

// NewRecommendStep creates a recommendation step.
func NewRecommendStep() *RecommendStep {
	return &RecommendStep{}
}

// Name returns the step name.
func (s *RecommendStep) Name() string {
	return "recommend"
}

// Do derives recommendations from the verdict, if there is one.
func (s *RecommendStep) Do(_ context.Context, job *Job) error {
	if job.Report.Verdict == nil {
		return nil
	}
	job.Report.Recommendations = model.Recommendations(*job.Report.Verdict)
	return nil
}

// DefaultPipelineConfig contains configuration for building the default pipeline.
type DefaultPipelineConfig struct {
	// MaxFileSize is the largest file the load step accepts.
	MaxFileSize int64

	// Logger is passed to the forensics step.
	Logger *slog.Logger
}

// DefaultPipelineOption configures DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxFileSize sets the maximum file size.
func WithPipelineMaxFileSize(size int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxFileSize = size
	}
}

// WithPipelineLogger sets the logger used by the steps.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates a pipeline with the standard steps:
// load, decode, forensics and recommend.
func DefaultPipeline(engine *forensics.Engine, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	cfg := &DefaultPipelineConfig{
		MaxFileSize: imageio.DefaultMaxSize,
		Logger:      slog.Default(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p := New(pipelineOpts...)
	p.AddSteps(
		NewLoadStep(cfg.MaxFileSize),
		NewDecodeStep(WithDecodeLogger(cfg.Logger)),
		NewForensicsStep(engine, WithForensicsLogger(cfg.Logger)),
		NewRecommendStep(),
	)
	return p
}
