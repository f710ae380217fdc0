package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/imgforensics/internal/imageio"
	"github.com/nao1215/imgforensics/internal/model"
)

// Job carries one file through the pipeline.
// Steps read what earlier steps produced and fill in their own fields.
type Job struct {
	// Path is the file to analyze. It is also used as the report filename.
	Path string

	// Data holds the encoded bytes once loaded.
	Data []byte

	// Decoded is set by the decode step.
	Decoded *imageio.Decoded

	// Report accumulates the result.
	Report *model.AnalysisReport

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string
}

// NewJob creates a job for the file at path.
func NewJob(path string) *Job {
	return &Job{
		Path:   path,
		Report: model.NewAnalysisReport(path),
	}
}

// NewJobFromBytes creates a job whose data is already in memory.
// A load step leaves Data untouched when it is already set.
func NewJobFromBytes(name string, data []byte) *Job {
	j := NewJob(name)
	j.Data = data
	return j
}

// Step defines the interface that all pipeline steps must implement.
// Steps run in sequence and share state through the Job.
type Step interface {
	// Do executes the step. A returned error stops the pipeline unless it
	// was built WithContinueOnError.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Errors are still recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// Cancellation is checked before each step; steps handle their own timeouts.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete. Errors are always recorded in the report.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	if job.Report == nil {
		job.Report = model.NewAnalysisReport(job.Path)
	}

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			job.Report.TimedOut = true
			job.Report.SetError(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"file", job.Path,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"file", job.Path,
				"error", err,
			)
			job.Report.SetError(err)

			if !p.continueOnError {
				return err
			}
			continue
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
