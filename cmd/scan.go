package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/apiprobe/internal/application"
	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
	"github.com/khanhnv2901/apiprobe/internal/probe"
	"github.com/khanhnv2901/apiprobe/internal/report"
	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run every probe against a target API and write reports",
	Example: `  apiprobe scan --target https://api.example.com
  apiprobe scan -t http://localhost:3001 --output ./report --format json,md,pdf
  apiprobe scan -t http://localhost:3001 --strict-unreachable --rate-limit 20`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	appCtx := getAppContext(cmd)
	cfg := appCtx.Config
	logger := appCtx.Logger
	out := cmd.OutOrStdout()

	if strings.TrimSpace(cfg.Scan.Target) == "" {
		return errors.New("--target is required")
	}
	formats, err := report.ParseFormats(splitList(cfg.Output.Formats))
	if err != nil {
		return err
	}
	outputDir, err := resolveOutputDir(cfg.Output.Dir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\n%s Received %s, scoring partial results...\n", colorWarn("!"), sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	container, err := application.NewContainer(application.Config{
		Target:    cfg.Scan.Target,
		APIPrefix: cfg.Scan.APIPrefix,
		OutputDir: outputDir,
		HTTP: httpclient.Config{
			Timeout:   time.Duration(cfg.Scan.TimeoutSecs) * time.Second,
			Retries:   cfg.Scan.Retries,
			Backoff:   time.Duration(cfg.Scan.BackoffMillis) * time.Millisecond,
			PoolSize:  cfg.Scan.PoolSize,
			UserAgent: cfg.Scan.UserAgent,
			RateLimit: cfg.Scan.RateLimit,
		},
		Payloads: probe.DefaultPayloads(),
		Options:  probe.Options{StrictUnreachable: cfg.Scan.StrictUnreachable},
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize scan: %w", err)
	}
	defer container.Close()

	run, err := scan.NewRun(container.Target)
	if err != nil {
		return err
	}

	printBanner(out, container, cfg)

	runner := container.Runner
	var progress *progressPrinter
	if cfg.Scan.ProgressEnabled {
		progress = newProgressPrinter(out)
		runner = runner.WithObserver(progress)
	}

	start := time.Now()
	assessment, err := runner.Run(ctx, run)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, sharedErrors.ErrTargetUnreachable) {
			fmt.Fprintf(out, "%s Target %s is not reachable\n", colorError("✗"), container.Target)
			return &TargetUnreachableError{Target: container.Target, Err: err}
		}
		return fmt.Errorf("scan failed: %w", err)
	}
	if progress != nil {
		progress.print()
	}

	printAssessment(out, assessment)

	writer := report.NewWriter(container.ReportRepo, Version, logger)
	// Reports are written even after an interrupt; use a fresh context.
	paths, writeErr := writer.WriteAll(context.WithoutCancel(ctx), run, assessment, formats)
	for _, p := range paths {
		fmt.Fprintf(out, "%s Report saved: %s\n", colorSuccess("✓"), p)
	}

	if cfg.Output.TelemetryEnabled {
		if err := recordTelemetry(outputDir, "scan", run, assessment, duration); err != nil {
			logger.Warnw("failed to record telemetry", "error", err)
		}
	}

	return scanOutcome(assessment, writeErr)
}

// scanOutcome keeps the assessment's exit code when reports failed to write;
// the write failure only decides the code for an otherwise passing run.
func scanOutcome(a scan.Assessment, writeErr error) error {
	if writeErr == nil {
		return assessmentOutcome(a)
	}
	err := fmt.Errorf("failed to write reports: %w", writeErr)
	if code := exitCodeForAssessment(a); code != ExitOK {
		return &ExitError{Code: code, Err: err}
	}
	return err
}

func printBanner(out io.Writer, c *application.Container, cfg *CLIConfig) {
	line := strings.Repeat("=", 70)
	fmt.Fprintln(out, line)
	fmt.Fprintf(out, "  apiprobe %s - external API security scan\n", Version)
	fmt.Fprintf(out, "  Target:  %s%s\n", c.Target, cfg.Scan.APIPrefix)
	fmt.Fprintf(out, "  Probes:  %d groups\n", c.Registry.Len())
	fmt.Fprintf(out, "  Date:    %s\n", time.Now().UTC().Format(time.RFC3339))
	if cfg.Scan.StrictUnreachable {
		fmt.Fprintf(out, "  Policy:  %s\n", colorWarn("strict (unanswered requests fail)"))
	}
	fmt.Fprintln(out, line)
}

func printAssessment(out io.Writer, a scan.Assessment) {
	line := strings.Repeat("=", 70)
	fmt.Fprintf(out, "\n%s\n  FINAL RESULT\n%s\n", line, line)
	fmt.Fprintf(out, "\n  Confidence Score: %s (Grade: %s)\n", colorBold(a.ConfidenceLabel()), formatGradeWithColor(a.Grade))
	fmt.Fprintf(out, "  Tests: %d/%d passed\n", a.TestsPassed, a.TestsTotal)
	fmt.Fprintf(out, "  Findings: %d\n", len(a.Findings))
	fmt.Fprintf(out, "    %s: %d\n", formatSeverityWithColor(scan.SeverityCritical), a.Tally.Critical)
	fmt.Fprintf(out, "    %s: %d\n", formatSeverityWithColor(scan.SeverityHigh), a.Tally.High)
	fmt.Fprintf(out, "    %s: %d\n", formatSeverityWithColor(scan.SeverityMedium), a.Tally.Medium)
	fmt.Fprintf(out, "    %s: %d\n", formatSeverityWithColor(scan.SeverityLow), a.Tally.Low)

	if len(a.CategoryScores) > 0 {
		fmt.Fprintln(out, "\n  Category Scores:")
		for _, cs := range a.CategoryScores {
			fmt.Fprintf(out, "    %-12s [%s] %5.1f%%\n", cs.Category, scoreBar(cs.Score), cs.Score)
		}
	}
	fmt.Fprintln(out)
}

// scoreBar draws a 20 cell bar for a 0-100 score.
func scoreBar(score float64) string {
	filled := int(score / 5)
	filled = max(0, min(20, filled))
	return strings.Repeat("#", filled) + strings.Repeat(".", 20-filled)
}

func init() {
	flags := scanCmd.Flags()
	flags.StringVarP(&cliConfig.Scan.Target, "target", "t", "", "base URL of the API (e.g. https://api.example.com)")
	flags.StringVarP(&cliConfig.Output.Dir, "output", "o", cliConfig.Output.Dir, "output directory for reports")
	flags.StringSliceVar(&cliConfig.Output.Formats, "format", cliConfig.Output.Formats, "report formats: json, md, pdf")
	flags.IntVar(&cliConfig.Scan.TimeoutSecs, "timeout", cliConfig.Scan.TimeoutSecs, "per-request timeout in seconds")
	flags.IntVar(&cliConfig.Scan.Retries, "retries", cliConfig.Scan.Retries, "retries for 502/503/504 on idempotent requests")
	flags.IntVar(&cliConfig.Scan.BackoffMillis, "backoff-ms", cliConfig.Scan.BackoffMillis, "base retry backoff in milliseconds")
	flags.IntVar(&cliConfig.Scan.PoolSize, "pool-size", cliConfig.Scan.PoolSize, "connection pool size (raised to the widest burst)")
	flags.StringVar(&cliConfig.Scan.APIPrefix, "api-prefix", cliConfig.Scan.APIPrefix, "path prefix appended to the target")
	flags.StringVar(&cliConfig.Scan.UserAgent, "user-agent", cliConfig.Scan.UserAgent, "User-Agent header")
	flags.Float64Var(&cliConfig.Scan.RateLimit, "rate-limit", cliConfig.Scan.RateLimit, "requests per second for sequential probes (0 = unpaced)")
	flags.BoolVar(&cliConfig.Scan.StrictUnreachable, "strict-unreachable", cliConfig.Scan.StrictUnreachable, "fail assertions whose requests got no response")
	flags.BoolVar(&cliConfig.Scan.ProgressEnabled, "progress", cliConfig.Scan.ProgressEnabled, "print per-probe progress")
	flags.BoolVar(&cliConfig.Output.TelemetryEnabled, "telemetry", cliConfig.Output.TelemetryEnabled, "append run metrics to telemetry.jsonl")
}
