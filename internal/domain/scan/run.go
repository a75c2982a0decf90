package scan

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Run is the run-scoped storage for one scan against one target. It is the
// aggregate root that owns the Results and Findings produced by the probes.
// A Run is not safe for concurrent mutation; only the runner appends to it.
type Run struct {
	id          string
	target      string
	startedAt   time.Time
	completedAt time.Time
	status      RunStatus
	results     []Result
	findings    []Finding
}

// RunStatus represents the lifecycle state of a scan run
type RunStatus string

const (
	RunStatusPending     RunStatus = "pending"
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusUnreachable RunStatus = "unreachable"
)

// NewRun creates a pending run for target, which must be an absolute http(s) URL.
func NewRun(target string) (*Run, error) {
	normalized, err := NormalizeTarget(target)
	if err != nil {
		return nil, err
	}

	return &Run{
		id:       uuid.NewString(),
		target:   normalized,
		status:   RunStatusPending,
		results:  make([]Result, 0),
		findings: make([]Finding, 0),
	}, nil
}

// NormalizeTarget validates a base URL and strips trailing slashes.
func NormalizeTarget(target string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(target), "/")
	if trimmed == "" {
		return "", sharedErrors.ErrEmptyTarget
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", sharedErrors.ErrInvalidTarget, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", sharedErrors.ErrInvalidTarget, target)
	}
	return trimmed, nil
}

// Reconstruct creates a run from persisted data
func Reconstruct(id, target string, startedAt, completedAt time.Time, status RunStatus,
	results []Result, findings []Finding) *Run {
	return &Run{
		id:          id,
		target:      target,
		startedAt:   startedAt,
		completedAt: completedAt,
		status:      status,
		results:     append([]Result(nil), results...),
		findings:    append([]Finding(nil), findings...),
	}
}

// Business methods

// Start marks the run as running
func (r *Run) Start() error {
	if r.status != RunStatusPending {
		return fmt.Errorf("run %s can only be started from pending status (is %s)", r.id, r.status)
	}
	r.status = RunStatusRunning
	r.startedAt = time.Now().UTC()
	return nil
}

// Complete marks the run as completed
func (r *Run) Complete() error {
	if r.status != RunStatusRunning {
		return fmt.Errorf("%w: run %s is %s", sharedErrors.ErrRunNotStarted, r.id, r.status)
	}
	r.status = RunStatusCompleted
	r.completedAt = time.Now().UTC()
	return nil
}

// MarkUnreachable ends the run because the pre-flight liveness check failed.
// Only a run with no collected outcomes may be marked unreachable.
func (r *Run) MarkUnreachable() error {
	if r.status != RunStatusRunning {
		return fmt.Errorf("%w: run %s is %s", sharedErrors.ErrRunNotStarted, r.id, r.status)
	}
	if len(r.results) > 0 || len(r.findings) > 0 {
		return fmt.Errorf("run %s already collected outcomes", r.id)
	}
	r.status = RunStatusUnreachable
	r.completedAt = time.Now().UTC()
	return nil
}

// AddResult appends a probe result in execution order
func (r *Run) AddResult(result Result) error {
	if err := r.ensureRunning(); err != nil {
		return err
	}
	r.results = append(r.results, result)
	return nil
}

// AddFinding appends a finding in discovery order
func (r *Run) AddFinding(finding Finding) error {
	if err := r.ensureRunning(); err != nil {
		return err
	}
	r.findings = append(r.findings, finding)
	return nil
}

func (r *Run) ensureRunning() error {
	switch r.status {
	case RunStatusRunning:
		return nil
	case RunStatusPending:
		return fmt.Errorf("%w: run %s", sharedErrors.ErrRunNotStarted, r.id)
	default:
		return fmt.Errorf("%w: run %s is %s", sharedErrors.ErrRunFinished, r.id, r.status)
	}
}

// Getters

func (r *Run) ID() string {
	return r.id
}

func (r *Run) Target() string {
	return r.target
}

func (r *Run) StartedAt() time.Time {
	return r.startedAt
}

func (r *Run) CompletedAt() time.Time {
	return r.completedAt
}

func (r *Run) Status() RunStatus {
	return r.status
}

func (r *Run) Results() []Result {
	// Return a copy to prevent external modification
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Run) Findings() []Finding {
	out := make([]Finding, len(r.findings))
	copy(out, r.findings)
	return out
}

// RequestsSent totals the requests recorded across all results.
func (r *Run) RequestsSent() int {
	total := 0
	for _, res := range r.results {
		total += res.requestsSent
	}
	return total
}
