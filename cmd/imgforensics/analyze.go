package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nao1215/imgforensics/internal/config"
	"github.com/nao1215/imgforensics/internal/forensics"
	"github.com/nao1215/imgforensics/internal/model"
	"github.com/nao1215/imgforensics/internal/pipeline"
	"github.com/nao1215/imgforensics/internal/report"
)

// Values accepted by --color.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// errAnalysisFailed is returned after the report is written when at least
// one file produced no verdict.
var errAnalysisFailed = errors.New("some files could not be analyzed")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [image...]",
		Short: "Analyze images for signs of manipulation",
		Long: `Analyze runs every enabled forensic algorithm on each image and prints a
verdict with the confidence score, risk level and recommendations.

JPEG, PNG, GIF, BMP, TIFF and WebP files are accepted. Files are analyzed
concurrently; the report lists them in the order given.

Examples:
  # Analyze a single image
  imgforensics analyze photo.jpg

  # Analyze many images, eight at a time
  imgforensics analyze --concurrency 8 shots/*.jpg

  # Write a JSON report to a file
  imgforensics analyze --json -o report.json photo.jpg

  # Show per-algorithm details and export Prometheus metrics
  imgforensics analyze --details --metrics-file run.prom photo.jpg

  # Skip JPEG quality estimation
  imgforensics analyze --disable jpeg_quality photo.png`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	addAnalysisFlags(cmd)
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of files analyzed at once")

	return cmd
}

// addAnalysisFlags registers the flags shared by analyze and watch.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .imgforensics in current or home directory)")

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Time limit for each algorithm on each image")
	cmd.Flags().Int64("max-size", config.DefaultMaxFileSize,
		"Largest image file accepted, in bytes")
	cmd.Flags().StringSlice("disable", nil,
		"Algorithms to skip (ela, metadata_consistency, noise_pattern, jpeg_quality)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("details", "d", false,
		"Include per-algorithm details in text reports")
	cmd.Flags().String("color", colorAuto,
		"Color risk levels in text reports (auto, always, never)")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to this file after the run")
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
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

	details, err := cmd.Flags().GetBool("details")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cfg, logger, cmd.OutOrStdout(), details)
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// buildConfig creates a Config from the config file and cobra command flags.
// Flags the user set explicitly override the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Targets = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-size") {
		if cfg.MaxFileSize, err = flags.GetInt64("max-size"); err != nil {
			return nil, err
		}
	}

	disabled, err := flags.GetStringSlice("disable")
	if err != nil {
		return nil, err
	}
	if len(disabled) > 0 {
		if err := cfg.ApplyFile(&config.File{Disabled: disabled}); err != nil {
			return nil, fmt.Errorf("--disable: %w", err)
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}

	colorMode, err := flags.GetString("color")
	if err != nil {
		return nil, err
	}
	cfg.Color, err = resolveColor(colorMode, cfg.ReportFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyConfigFile merges the config file into cfg. An explicit
// cfg.ConfigFilePath must exist; the default search may find nothing.
func applyConfigFile(cfg *config.Config) error {
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.ApplyFile(file); err != nil {
			return fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}
	return nil
}

// resolveColor decides whether text reports are colored.
// In auto mode, only terminal stdout gets color.
func resolveColor(mode, reportFile string) (bool, error) {
	switch mode {
	case colorAlways:
		return true, nil
	case colorNever:
		return false, nil
	case colorAuto:
		return reportFile == "" && !color.NoColor, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (use %s, %s or %s)", mode, colorAuto, colorAlways, colorNever)
	}
}

// runAnalyze analyzes every target and writes the report to stdout or the
// configured report file.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer, details bool) error {
	registry := prometheus.NewRegistry()
	engine, err := cfg.NewEngine(
		forensics.WithLogger(logger),
		forensics.WithMetrics(forensics.NewMetrics(registry)),
	)
	if err != nil {
		return err
	}

	logger.Info("starting analysis",
		"files", len(cfg.Targets),
		"concurrency", cfg.Concurrency,
		"timeout", cfg.Timeout,
	)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return newPipeline(engine, cfg, logger) },
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	reports, batchErr := bp.ProcessBatch(ctx, cfg.Targets)
	summary := model.NewSummary(reports)

	logger.Info("analysis complete",
		"analyzed", summary.Analyzed(),
		"failed", summary.FailedCount,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	if err := writeReports(cfg, stdout, reports, summary, details); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := writeMetrics(cfg.MetricsFile, registry); err != nil {
			return err
		}
	}

	if batchErr != nil {
		return batchErr
	}
	if summary.FailedCount > 0 {
		return fmt.Errorf("%w: %d of %d failed", errAnalysisFailed, summary.FailedCount, summary.Total)
	}
	return nil
}

// newPipeline builds the per-file pipeline. A failing step stops the file;
// the report keeps the error.
func newPipeline(engine *forensics.Engine, cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.DefaultPipeline(engine,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineMaxFileSize(cfg.MaxFileSize),
		pipeline.WithPipelineLogger(logger),
	)
}

// writeReports writes the batch to the report file, or to stdout when no
// file is configured.
func writeReports(cfg *config.Config, stdout io.Writer, reports []*model.AnalysisReport, summary *model.Summary, details bool) (err error) {
	output, closeOutput, err := openOutput(cfg.ReportFile, stdout, false)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeOutput())
	}()

	_, err = report.WriteAll(newReportWriter(cfg, output, details, true), reports, summary)
	return err
}

// newReportWriter selects the writer for the configured format. When
// document is true, JSON output is a single document for the whole batch;
// otherwise each report is one JSON line.
func newReportWriter(cfg *config.Config, output io.Writer, details, document bool) report.Writer {
	switch {
	case cfg.JSONReport && document:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.JSONReport:
		return report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output,
			report.WithVerbose(details),
			report.WithColor(cfg.Color),
		)
	}
}

// openOutput opens path for writing, creating parent directories, or
// returns fallback when path is empty. With appendMode set, an existing
// file is extended instead of truncated. The returned close function
// reports the error from closing the file.
func openOutput(path string, fallback io.Writer, appendMode bool) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(path, flag, 0600) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() error {
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
		return nil
	}, nil
}

// writeMetrics exports the collected metrics in the Prometheus text format.
func writeMetrics(path string, gatherer prometheus.Gatherer) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
