package cmd

import (
	"errors"
	"fmt"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitLowConfidence = 1
	ExitCritical      = 2
	ExitUnreachable   = 3
	ExitOperational   = 4
)

// confidenceThreshold is the lowest confidence score that exits 0.
const confidenceThreshold = 60.0

// TargetUnreachableError reports a failed pre-flight liveness check.
type TargetUnreachableError struct {
	Target string
	Err    error
}

func (e *TargetUnreachableError) Error() string {
	return fmt.Sprintf("target %s is not reachable; check the URL and that the API is running", e.Target)
}

func (e *TargetUnreachableError) Unwrap() error {
	return e.Err
}

// ExitError carries a non-zero exit code for a scan that completed but did
// not meet the bar. Err is nil when there is nothing to print.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeForAssessment maps a scored run onto its exit code. CRITICAL
// findings take precedence over the confidence score.
func exitCodeForAssessment(a scan.Assessment) int {
	switch {
	case a.HasCritical():
		return ExitCritical
	case !a.Scored || a.ConfidenceScore < confidenceThreshold:
		return ExitLowConfidence
	default:
		return ExitOK
	}
}

// assessmentOutcome returns nil for a passing run and an *ExitError otherwise.
func assessmentOutcome(a scan.Assessment) error {
	if code := exitCodeForAssessment(a); code != ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var unreachable *TargetUnreachableError
	if errors.As(err, &unreachable) || errors.Is(err, sharedErrors.ErrTargetUnreachable) {
		return ExitUnreachable
	}
	return ExitOperational
}

// isSilent reports whether err only carries an exit code.
func isSilent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Err == nil
}
