package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.ApplyFile() so
// callers can use errors.Is() for programmatic handling.
var (
	// ErrNoTarget is returned when no image file or directory is specified.
	ErrNoTarget = errors.New("no target specified: provide at least one image file")

	// ErrInvalidTimeout is returned when the per-algorithm timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the number of concurrent files is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxFileSize is returned when the maximum file size is not positive.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be positive")

	// ErrInvalidWeight is returned for a negative or non-finite weight override.
	ErrInvalidWeight = errors.New("invalid weight: must be a finite non-negative number")

	// ErrAllAlgorithmsDisabled is returned when the configuration leaves no
	// algorithm to run.
	ErrAllAlgorithmsDisabled = errors.New("every algorithm is disabled")
)
