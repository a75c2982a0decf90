package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/probe"
	consts "github.com/khanhnv2901/apiprobe/internal/shared/constants"
)

// progressPrinter reports probe progress on the console. It implements the
// runner's Observer interface.
type progressPrinter struct {
	out      io.Writer
	mu       sync.Mutex
	ok       int
	fail     int
	findings int
	duration time.Duration
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) ProbeStarted(index, total int, pr probe.Probe) {
	fmt.Fprintf(p.out, "\n%s [%d/%d] %s (%s)\n", colorInfo("→"), index+1, total, colorBold(pr.Name()), pr.Category())
}

func (p *progressPrinter) ProbeFinished(index, total int, pr probe.Probe, rep probe.Report, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range rep.Results {
		status := "PASS"
		if r.Passed() {
			p.ok++
		} else {
			status = "FAIL"
			p.fail++
		}
		fmt.Fprintf(p.out, "    [%s] %s: %s\n", formatStatusWithColor(status), r.TestName(),
			truncateLine(r.Details(), consts.DetailsDisplayLimit))
	}
	for _, f := range rep.Findings {
		p.findings++
		fmt.Fprintf(p.out, "    %s %s\n", formatSeverityWithColor(f.Severity()), f.Title())
	}
	p.duration += elapsed
	fmt.Fprintf(p.out, "    done in %.1fs\n", elapsed.Seconds())
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	ok, fail, findings, dur := p.ok, p.fail, p.findings, p.duration
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\nProgress: %d tests OK:%d Fail:%d Findings:%d Elapsed:%.1fs\n",
		ok+fail, ok, fail, findings, dur.Seconds())
}

func truncateLine(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
