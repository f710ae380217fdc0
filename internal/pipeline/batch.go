package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/imgforensics/internal/model"
)

// BatchProcessor analyzes many files concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each file.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of files analyzed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent files.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// The pipelineFactory function is called for each file.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch analyzes every path and returns one report per path, in input
// order. A file that fails still gets a report carrying the error.
// The error return is non-nil only when the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, paths []string) ([]*model.AnalysisReport, error) {
	bp.logger.Info("starting batch processing",
		"total_files", len(paths),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	results := make([]*model.AnalysisReport, len(paths))

	err := bp.ProcessBatchWithCallback(ctx, paths, func(report *model.AnalysisReport, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = report
	})

	bp.logger.Info("batch processing complete",
		"total_files", len(paths),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback analyzes paths and calls callback for each
// completed file. The callback runs on the worker goroutine, so it must be
// safe for concurrent use if it touches shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	paths []string,
	callback func(report *model.AnalysisReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				report := model.NewAnalysisReport(path)
				report.TimedOut = true
				report.SetError(ctx.Err())
				callback(report, i)
				return ctx.Err()
			default:
			}

			bp.logger.Debug("analyzing file",
				"file", path,
				"index", i+1,
				"total", len(paths),
			)

			job := NewJob(path)
			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				bp.logger.Warn("analysis failed",
					"file", path,
					"error", err,
				)
			}

			callback(job.Report, i)
			return nil
		})
	}

	return g.Wait()
}
