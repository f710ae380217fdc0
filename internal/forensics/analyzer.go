package forensics

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Analyzer is one forensic signal extractor.
// Implementations must be safe for concurrent use and must not retain or
// modify the Input they are given.
type Analyzer interface {
	// ID returns the stable identifier used as the key in verdicts.
	ID() AlgorithmID

	// Name returns the human-readable display name.
	Name() string

	// Description returns a one-line description for listings.
	Description() string

	// Analyze computes the manipulation score for in.
	// A returned error is converted into a failed AlgorithmResult by Run.
	Analyze(ctx context.Context, in *Input) (Outcome, error)
}

// validator is implemented by analyzers whose configuration can be checked
// before any image is processed.
type validator interface {
	Validate() error
}

// Run invokes a on in and converts every outcome into an AlgorithmResult.
// Errors, panics and a missing image all become failed results carrying the
// analyzer's display name. Run never panics.
func Run(ctx context.Context, a Analyzer, in *Input) (result AlgorithmResult) {
	name := a.Name()

	defer func() {
		if r := recover(); r != nil {
			err := &AlgorithmError{
				Algorithm: a.ID(),
				Reason:    ReasonPanic,
				Err:       fmt.Errorf("recovered: %v\n%s", r, debug.Stack()),
			}
			result = failed(name, err)
			// The stack trace is useful in logs but too noisy for the result.
			result.Error = fmt.Sprintf("%s: %s: recovered: %v", a.ID(), ReasonPanic, r)
		}
	}()

	if in == nil || in.Image == nil {
		return failed(name, newAlgorithmError(a.ID(), ReasonUnsupportedInput, ErrNoImage))
	}
	if err := ctx.Err(); err != nil {
		return failed(name, newAlgorithmError(a.ID(), ReasonCancelled, err))
	}

	out, err := a.Analyze(ctx, in)
	if err != nil {
		return failed(name, err)
	}
	return succeeded(name, out)
}
