package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// Authorization verifies protected endpoints refuse anonymous and forged
// admin callers.
type Authorization struct {
	Protected   []Endpoint
	ForgedAdmin string
	Options     Options
}

func (p *Authorization) Name() string            { return "Authorization" }
func (p *Authorization) Category() scan.Category { return scan.CategoryAuthz }

func (p *Authorization) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())

	var open []string
	var codes []int
	unanswered := 0
	for _, ep := range p.Protected {
		resp := req.Do(ctx, httpclient.Request{Method: ep.Method, Path: ep.Path})
		if !resp.Reachable() {
			unanswered++
			continue
		}
		codes = append(codes, resp.StatusCode)
		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
			open = append(open, fmt.Sprintf("%s -> %d", ep, resp.StatusCode))
		}
	}
	details := "All endpoints protected"
	if len(open) > 0 {
		details = fmt.Sprintf("Unprotected: %v", open)
	}
	rec.result(scan.ResultParams{
		TestName:     "Protected endpoints require auth",
		Passed:       len(open) == 0 && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(details, unanswered),
		RequestsSent: len(p.Protected),
		StatusCodes:  codes,
	})
	for _, ep := range open {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingAuthorization,
			Severity:        scan.SeverityHigh,
			Title:           "Endpoint accessible without authentication: " + ep,
			Description:     "Protected endpoint returns non-401/403 without auth token",
			Endpoint:        ep,
			Evidence:        ep,
			Classifications: []scan.ClassificationID{scan.MITRE("T1078"), scan.OWASP("API5:2023")},
			Remediation:     "Ensure authentication middleware is applied to all sensitive endpoints",
			CVSSEstimate:    7.5,
		})
	}

	resp := bearer(ctx, req, "/admin/dashboard", p.ForgedAdmin)
	rec.result(scan.ResultParams{
		TestName:     "Admin privilege escalation",
		Passed:       p.Options.rejected(resp, http.StatusUnauthorized, http.StatusForbidden),
		Details:      "Status: " + statusLabel(resp),
		RequestsSent: 1,
		StatusCodes:  statusCodesOf(resp),
	})
	return rec.done()
}
