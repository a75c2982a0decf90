package probe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// Requester is the HTTP facade as seen by probes.
type Requester interface {
	Do(ctx context.Context, req httpclient.Request) httpclient.Response
}

// Report is everything a probe group produced, in emission order.
type Report struct {
	Results  []scan.Result
	Findings []scan.Finding
}

// Probe is one group of related assertions against the target.
type Probe interface {
	Name() string
	Category() scan.Category
	Run(ctx context.Context, req Requester) Report
}

// Burster is implemented by probes that dispatch concurrent bursts. The
// connection pool must be at least MaxConcurrency wide.
type Burster interface {
	MaxConcurrency() int
}

// Options tune probe behaviour that is not payload data.
type Options struct {
	// StrictUnreachable makes negative assertions fail when the target did
	// not answer, instead of passing.
	StrictUnreachable bool
}

// acceptUnanswered reports whether an assertion with unanswered requests may
// still pass.
func (o Options) acceptUnanswered(unanswered int) bool {
	return unanswered == 0 || !o.StrictUnreachable
}

// recorder accumulates the outcomes of one probe group.
type recorder struct {
	category scan.Category
	report   Report
}

func newRecorder(c scan.Category) *recorder {
	return &recorder{category: c}
}

func (r *recorder) result(p scan.ResultParams) {
	p.Category = r.category
	r.report.Results = append(r.report.Results, scan.MustResult(p))
}

func (r *recorder) finding(p scan.FindingParams) {
	r.report.Findings = append(r.report.Findings, scan.MustFinding(p))
}

// unreachable records a failing result for an assertion that could not be
// evaluated because the target did not answer. Only used in strict mode.
func (r *recorder) unreachable(o Options, testName string, sent int) {
	if !o.StrictUnreachable {
		return
	}
	r.result(scan.ResultParams{
		TestName:     testName,
		Passed:       false,
		Details:      "No response from target",
		RequestsSent: sent,
	})
}

func (r *recorder) done() Report {
	return r.report
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// statusLabel renders a response status for result details.
func statusLabel(resp httpclient.Response) string {
	if !resp.Reachable() {
		return "no response"
	}
	return fmt.Sprintf("%d", resp.StatusCode)
}

// statusCodesOf returns the status of resp as a one-element slice, or nil.
func statusCodesOf(resp httpclient.Response) []int {
	if !resp.Reachable() {
		return nil
	}
	return []int{resp.StatusCode}
}

// histogram renders status code counts in ascending code order, e.g. "401:15 429:5".
func histogram(codes []int) string {
	counts := make(map[int]int)
	for _, c := range codes {
		counts[c]++
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d:%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func countStatus(codes []int, code int) int {
	n := 0
	for _, c := range codes {
		if c == code {
			n++
		}
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// rejected evaluates a "request must be refused" assertion: an answer passes
// when its status is in codes, no answer passes unless strict.
func (o Options) rejected(resp httpclient.Response, codes ...int) bool {
	if !resp.Reachable() {
		return !o.StrictUnreachable
	}
	for _, c := range codes {
		if resp.StatusCode == c {
			return true
		}
	}
	return false
}
