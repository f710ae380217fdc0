package forensics

import (
	"context"
	"errors"
	"fmt"
)

// Engine construction errors. These indicate programming or configuration
// mistakes and are returned by NewEngine, never at analysis time.
var (
	// ErrNoAnalyzers is returned when an engine is built without any analyzer.
	ErrNoAnalyzers = errors.New("engine requires at least one analyzer")

	// ErrNilAnalyzer is returned when a binding has no analyzer.
	ErrNilAnalyzer = errors.New("binding has a nil analyzer")

	// ErrNegativeWeight is returned for negative, NaN or infinite weights.
	ErrNegativeWeight = errors.New("analyzer weight must be a finite, non-negative number")

	// ErrZeroTotalWeight is returned when all weights are zero.
	ErrZeroTotalWeight = errors.New("sum of analyzer weights must be positive")

	// ErrDuplicateAlgorithm is returned when the same algorithm is bound twice.
	ErrDuplicateAlgorithm = errors.New("algorithm bound more than once")

	// ErrUnknownAlgorithm is returned for an algorithm id outside the known set.
	ErrUnknownAlgorithm = errors.New("unknown algorithm id")

	// ErrInvalidQuality is returned by analyzer validation for JPEG qualities outside 1..100.
	ErrInvalidQuality = errors.New("JPEG quality must be between 1 and 100")

	// ErrInvalidThreshold is returned by analyzer validation for inconsistent thresholds.
	ErrInvalidThreshold = errors.New("invalid analyzer threshold")
)

// Analysis-time errors wrapped by AlgorithmError.
var (
	// ErrNoImage is returned when an analyzer is invoked without an image.
	ErrNoImage = errors.New("no image supplied")

	// ErrNoQualities is returned when an analyzer has no qualities to test.
	ErrNoQualities = errors.New("no JPEG qualities configured")

	// ErrSizeMismatch is returned when a codec round-trip changes the image dimensions.
	ErrSizeMismatch = errors.New("round-tripped image dimensions differ from the original")
)

// Reason classifies why an analyzer failed.
type Reason string

// Failure reasons.
const (
	ReasonUnsupportedInput Reason = "unsupported_input"
	ReasonDegenerate       Reason = "degenerate"
	ReasonCodec            Reason = "codec"
	ReasonTimeout          Reason = "timeout"
	ReasonCancelled        Reason = "cancelled"
	ReasonPanic            Reason = "panic"
	ReasonUnknown          Reason = "unknown"
)

// AlgorithmError reports that one analyzer could not complete.
// It is always converted into a failed AlgorithmResult before it reaches
// engine callers.
type AlgorithmError struct {
	Algorithm AlgorithmID
	Reason    Reason
	Err       error
}

// Error implements error.
func (e *AlgorithmError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Algorithm, e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *AlgorithmError) Unwrap() error {
	return e.Err
}

// newAlgorithmError wraps err, deriving timeout and cancellation reasons from
// context errors so that callers do not have to.
func newAlgorithmError(id AlgorithmID, reason Reason, err error) *AlgorithmError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case errors.Is(err, context.Canceled):
		reason = ReasonCancelled
	}
	return &AlgorithmError{Algorithm: id, Reason: reason, Err: err}
}

// reasonOf extracts the failure reason from any error.
func reasonOf(err error) Reason {
	var ae *AlgorithmError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCancelled
	default:
		return ReasonUnknown
	}
}
