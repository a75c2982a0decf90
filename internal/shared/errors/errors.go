package errors

import "errors"

// Domain errors
var (
	// Model errors
	ErrUnknownSeverity = errors.New("unknown severity")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidFinding  = errors.New("invalid finding")
	ErrInvalidResult   = errors.New("invalid result")

	// Run errors
	ErrRunNotStarted = errors.New("scan run not started")
	ErrRunFinished   = errors.New("scan run already finished")
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("invalid target URL")

	// Orchestration errors
	ErrTargetUnreachable = errors.New("target unreachable")
	ErrDuplicateProbe    = errors.New("probe already registered")

	// Repository errors
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")
	ErrUnsupportedFormat     = errors.New("unsupported report format")
)
