package scan

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
	"github.com/khanhnv2901/apiprobe/internal/probe"
	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Observer receives progress callbacks while a run executes. Callbacks are
// made from the runner goroutine, in probe order.
type Observer interface {
	ProbeStarted(index, total int, p probe.Probe)
	ProbeFinished(index, total int, p probe.Probe, report probe.Report, elapsed time.Duration)
}

// Runner executes the probe registry against one target and scores the outcome
type Runner struct {
	registry  *probe.Registry
	requester probe.Requester
	logger    *zap.SugaredLogger
	observer  Observer
}

// NewRunner creates a runner over registry using requester for all traffic
func NewRunner(registry *probe.Registry, requester probe.Requester, logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{
		registry:  registry,
		requester: requester,
		logger:    logger,
	}
}

// WithObserver attaches a progress observer and returns the runner
func (r *Runner) WithObserver(o Observer) *Runner {
	r.observer = o
	return r
}

// Run starts run, checks the target is alive, executes every probe group in
// registry order and returns the Assessment of the collected outcomes.
//
// When the pre-flight check gets no HTTP response the run is marked
// unreachable, nothing is collected and an error wrapping
// ErrTargetUnreachable is returned without an Assessment.
func (r *Runner) Run(ctx context.Context, run *scan.Run) (scan.Assessment, error) {
	if err := run.Start(); err != nil {
		return scan.Assessment{}, fmt.Errorf("failed to start run: %w", err)
	}
	r.logger.Infow("scan started", "run_id", run.ID(), "target", run.Target(), "probes", r.registry.Len())

	if err := r.preflight(ctx, run); err != nil {
		return scan.Assessment{}, err
	}

	probes := r.registry.Probes()
	for i, p := range probes {
		if r.observer != nil {
			r.observer.ProbeStarted(i, len(probes), p)
		}
		start := time.Now()
		report := r.runProbe(ctx, p)
		elapsed := time.Since(start)

		if err := collect(run, report); err != nil {
			return scan.Assessment{}, fmt.Errorf("failed to collect %s outcomes: %w", p.Name(), err)
		}
		r.logger.Debugw("probe finished",
			"probe", p.Name(),
			"results", len(report.Results),
			"findings", len(report.Findings),
			"duration", elapsed)
		if r.observer != nil {
			r.observer.ProbeFinished(i, len(probes), p, report, elapsed)
		}
	}

	if ctx.Err() != nil {
		r.logger.Warnw("scan interrupted; scoring partial run", "run_id", run.ID(), "error", ctx.Err())
	}
	if err := run.Complete(); err != nil {
		return scan.Assessment{}, fmt.Errorf("failed to complete run: %w", err)
	}

	assessment, err := scan.Score(run.Results(), run.Findings())
	if err != nil {
		return scan.Assessment{}, fmt.Errorf("failed to score run: %w", err)
	}
	r.logger.Infow("scan completed",
		"run_id", run.ID(),
		"tests", assessment.TestsTotal,
		"passed", assessment.TestsPassed,
		"findings", len(assessment.Findings),
		"score", assessment.ConfidenceLabel(),
		"grade", assessment.Grade.String())
	return assessment, nil
}

func (r *Runner) preflight(ctx context.Context, run *scan.Run) error {
	resp := r.requester.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	if resp.Reachable() {
		r.logger.Infow("target reachable", "status", resp.StatusCode, "duration", resp.Duration)
		return nil
	}
	if err := run.MarkUnreachable(); err != nil {
		return fmt.Errorf("failed to mark run unreachable: %w", err)
	}
	r.logger.Errorw("pre-flight check failed", "target", run.Target(), "error", resp.Err)
	return fmt.Errorf("%w: %s: %v", sharedErrors.ErrTargetUnreachable, run.Target(), resp.Err)
}

// runProbe isolates a probe group: a panic becomes a single failing result
// for that group and anything it produced before panicking is dropped.
func (r *Runner) runProbe(ctx context.Context, p probe.Probe) (report probe.Report) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		r.logger.Errorw("probe panicked", "probe", p.Name(), "panic", rec, "stack", string(debug.Stack()))
		degraded, err := scan.NewResult(scan.ResultParams{
			TestName: p.Name(),
			Category: p.Category(),
			Passed:   false,
			Details:  fmt.Sprintf("Probe aborted: %v", rec),
		})
		if err != nil {
			r.logger.Errorw("cannot record degraded result", "probe", p.Name(), "error", err)
			report = probe.Report{}
			return
		}
		report = probe.Report{Results: []scan.Result{degraded}}
	}()
	return p.Run(ctx, r.requester)
}

func collect(run *scan.Run, report probe.Report) error {
	for _, res := range report.Results {
		if err := run.AddResult(res); err != nil {
			return err
		}
	}
	for _, f := range report.Findings {
		if err := run.AddFinding(f); err != nil {
			return err
		}
	}
	return nil
}
