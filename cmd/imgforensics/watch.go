package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nao1215/imgforensics/internal/config"
	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/model"
	"github.com/nao1215/imgforensics/internal/pipeline"
	"github.com/nao1215/imgforensics/internal/report"
	"github.com/nao1215/imgforensics/internal/watch"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Analyze images as they appear in a directory",
		Long: `Watch monitors a directory and analyzes every image that is created or
modified in it, once the file has stopped changing. Reports are printed as
files are analyzed. Press Ctrl+C to stop; a summary is printed on exit.

With --output, reports are also appended to the given file. JSON output is
written one report per line.

Examples:
  # Watch the incoming directory
  imgforensics watch ./incoming

  # Include images already in the directory
  imgforensics watch --existing ./incoming

  # Append JSON lines to a log and keep Prometheus metrics up to date
  imgforensics watch --json -o verdicts.jsonl --metrics-file /var/lib/node_exporter/imgforensics.prom ./incoming`,
		Args: cobra.ExactArgs(1),
		RunE: runWatchCmd,
	}

	addAnalysisFlags(cmd)
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of files analyzed at once")
	cmd.Flags().Duration("settle", watch.DefaultSettleDelay,
		"How long a file must stay unchanged before it is analyzed")
	cmd.Flags().Bool("existing", false,
		"Also analyze images already in the directory")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	flags := cmd.Flags()
	details, err := flags.GetBool("details")
	if err != nil {
		return err
	}
	settle, err := flags.GetDuration("settle")
	if err != nil {
		return err
	}
	existing, err := flags.GetBool("existing")
	if err != nil {
		return err
	}

	w, err := watch.New(cfg.Targets[0],
		watch.WithSettleDelay(settle),
		watch.WithExisting(existing),
		watch.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWatch(ctx, cfg, w, logger, cmd.OutOrStdout(), details)
}

// runWatch analyzes files delivered by w until ctx is cancelled.
func runWatch(ctx context.Context, cfg *config.Config, w *watch.Watcher, logger *slog.Logger, stdout io.Writer, details bool) (err error) {
	registry := prometheus.NewRegistry()
	engine, err := cfg.NewEngine(
		forensics.WithLogger(logger),
		forensics.WithMetrics(forensics.NewMetrics(registry)),
	)
	if err != nil {
		return err
	}

	writer, closeOutput, err := newWatchWriter(cfg, stdout, details)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeOutput())
	}()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return newPipeline(engine, cfg, logger) },
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	var (
		mu      sync.Mutex
		history []*model.AnalysisReport
	)

	err = w.Run(ctx, func(ctx context.Context, paths []string) {
		err := bp.ProcessBatchWithCallback(ctx, paths, func(r *model.AnalysisReport, _ int) {
			mu.Lock()
			defer mu.Unlock()

			history = append(history, r)
			if _, err := writer.Write(r); err != nil {
				logger.Error("failed to write report", "file", r.Filename, "error", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("batch interrupted", "error", err)
		}

		if cfg.MetricsFile != "" {
			if err := writeMetrics(cfg.MetricsFile, registry); err != nil {
				logger.Error("failed to export metrics", "error", err)
			}
		}
	})
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if len(history) > 1 {
		if _, err := writer.WriteSummary(model.NewSummary(history)); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

// newWatchWriter returns the writer for streamed reports. The terminal
// always gets text; with a report file, the chosen format is appended to it
// as well.
func newWatchWriter(cfg *config.Config, stdout io.Writer, details bool) (report.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return newReportWriter(cfg, stdout, details, false), func() error { return nil }, nil
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout, true)
	if err != nil {
		return nil, nil, err
	}

	terminal := report.NewSimpleWriter(stdout, report.WithColor(cfg.Color))
	return report.NewMultiWriter(terminal, newReportWriter(cfg, output, details, false)), closeOutput, nil
}
