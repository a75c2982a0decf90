package probe

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// HeaderSpec is one expected security response header.
type HeaderSpec struct {
	Name string
	// Accepted lists the allowed values; empty means presence is enough.
	Accepted []string
	Severity scan.Severity
}

// DefaultHeaderSpecs is the expected header set, checked in this order.
var DefaultHeaderSpecs = []HeaderSpec{
	{Name: "X-Content-Type-Options", Accepted: []string{"nosniff"}, Severity: scan.SeverityLow},
	{Name: "X-Frame-Options", Accepted: []string{"DENY", "SAMEORIGIN"}, Severity: scan.SeverityLow},
	{Name: "Strict-Transport-Security", Severity: scan.SeverityMedium},
	{Name: "Content-Security-Policy", Severity: scan.SeverityMedium},
	{Name: "X-XSS-Protection", Severity: scan.SeverityLow},
	{Name: "Referrer-Policy", Severity: scan.SeverityLow},
	{Name: "Permissions-Policy", Severity: scan.SeverityLow},
}

// MaxMissingHeaders is how many expected headers may be absent or wrong
// before the presence assertion fails.
const MaxMissingHeaders = 2

// SecurityHeaders inspects the hardening headers on a plain GET.
type SecurityHeaders struct {
	Specs   []HeaderSpec
	Options Options
}

func (p *SecurityHeaders) Name() string            { return "Security headers" }
func (p *SecurityHeaders) Category() scan.Category { return scan.CategoryHeaders }

// headerCheck is the evaluation of one HeaderSpec.
type headerCheck struct {
	spec   HeaderSpec
	actual string
	ok     bool
}

// label names a failed check, including the offending value when present.
func (c headerCheck) label() string {
	switch {
	case c.actual == "":
		return c.spec.Name
	case len(c.spec.Accepted) == 1:
		return fmt.Sprintf("%s (got: %s, expected: %s)", c.spec.Name, c.actual, c.spec.Accepted[0])
	default:
		return fmt.Sprintf("%s (got: %s)", c.spec.Name, c.actual)
	}
}

func evaluateHeader(spec HeaderSpec, header http.Header) headerCheck {
	actual := header.Get(spec.Name)
	check := headerCheck{spec: spec, actual: actual}
	if actual == "" {
		return check
	}
	check.ok = len(spec.Accepted) == 0 || slices.Contains(spec.Accepted, actual)
	return check
}

func (p *SecurityHeaders) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())

	resp := req.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	if !resp.Reachable() {
		rec.unreachable(p.Options, "Security headers presence", 1)
		return rec.done()
	}

	var missing []headerCheck
	present := 0
	for _, spec := range p.Specs {
		check := evaluateHeader(spec, resp.Header)
		if check.ok {
			present++
		} else {
			missing = append(missing, check)
		}
	}

	labels := make([]string, 0, len(missing))
	for _, m := range missing {
		labels = append(labels, m.label())
	}
	rec.result(scan.ResultParams{
		TestName:     "Security headers presence",
		Passed:       len(missing) <= MaxMissingHeaders,
		Details:      fmt.Sprintf("Present: %d, Missing: [%s]", present, strings.Join(labels, ", ")),
		RequestsSent: 1,
		StatusCodes:  []int{resp.StatusCode},
	})

	for _, m := range missing {
		label := m.label()
		rec.finding(scan.FindingParams{
			Category:        scan.FindingSecurityHeaders,
			Severity:        m.spec.Severity,
			Title:           "Missing security header: " + label,
			Description:     "Security header not set: " + label,
			Endpoint:        "ALL",
			Evidence:        pick(m.actual == "", "Header missing from response", "Unexpected value: "+m.actual),
			Classifications: []scan.ClassificationID{scan.OWASP("A05:2021")},
			Remediation:     fmt.Sprintf("Add %s header to all responses", m.spec.Name),
			CVSSEstimate:    3.0,
		})
	}
	return rec.done()
}
