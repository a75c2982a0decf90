package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// DataExposure looks for secrets and internals in responses anonymous
// callers can obtain.
type DataExposure struct {
	HealthKeys      []string
	ProfileUsername string
	ProfileKeys     []string
	InternalMarkers []string
	APIPrefix       string
	Options         Options
}

func (p *DataExposure) Name() string            { return "Data exposure" }
func (p *DataExposure) Category() scan.Category { return scan.CategoryPrivacy }

func (p *DataExposure) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())

	// Health: any sensitive word anywhere in the body, case-insensitive.
	resp := req.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	if resp.Reachable() {
		exposed := containsAnyFold(resp.Text(), p.HealthKeys)
		details := "No sensitive data in health"
		if len(exposed) > 0 {
			details = fmt.Sprintf("Exposed: %v", exposed)
		}
		rec.result(scan.ResultParams{
			TestName:     "Health endpoint data exposure",
			Passed:       len(exposed) == 0,
			Details:      details,
			RequestsSent: 1,
			StatusCodes:  []int{resp.StatusCode},
		})
	} else {
		rec.unreachable(p.Options, "Health endpoint data exposure", 1)
	}

	resp = req.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/nonexistent-route-12345"})
	if resp.Reachable() {
		leaks := errorLeaks(resp.Text())
		details := "No information leakage"
		if len(leaks) > 0 {
			details = fmt.Sprintf("Leaks: %v", leaks)
		}
		rec.result(scan.ResultParams{
			TestName:     "Error response information leakage",
			Passed:       len(leaks) == 0,
			Details:      details,
			RequestsSent: 1,
			StatusCodes:  []int{resp.StatusCode},
		})
	} else {
		rec.unreachable(p.Options, "Error response information leakage", 1)
	}

	p.publicProfile(ctx, req, rec)

	// Verbose errors: markers are matched case-sensitively in the JSON body.
	resp = login(ctx, req, "x", "x")
	switch {
	case !resp.Reachable():
		rec.unreachable(p.Options, "Verbose error message check", 1)
	case len(jsonObject(resp.Body)) > 0:
		internal := containsAny(resp.Text(), p.InternalMarkers)
		rec.result(scan.ResultParams{
			TestName:     "Verbose error message check",
			Passed:       len(internal) == 0,
			Details:      pick(len(internal) > 0, "Internal info leaked", "Error messages are safe"),
			RequestsSent: 1,
			StatusCodes:  []int{resp.StatusCode},
		})
	}
	return rec.done()
}

func (p *DataExposure) publicProfile(ctx context.Context, req Requester, rec *recorder) {
	const testName = "Public profile sensitive data"
	resp := req.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/users/" + p.ProfileUsername})
	if resp.StatusCode != http.StatusOK {
		if !resp.Reachable() && p.Options.StrictUnreachable {
			rec.unreachable(p.Options, testName, 1)
			return
		}
		rec.result(scan.ResultParams{
			TestName:     testName,
			Passed:       true,
			Details:      "Profile not found or requires auth",
			RequestsSent: 1,
			StatusCodes:  statusCodesOf(resp),
		})
		return
	}

	exposed := presentKeys(nested(jsonObject(resp.Body), "data"), p.ProfileKeys)
	details := "No sensitive fields in public profile"
	if len(exposed) > 0 {
		details = fmt.Sprintf("Exposed fields: %v", exposed)
	}
	rec.result(scan.ResultParams{
		TestName:     testName,
		Passed:       len(exposed) == 0,
		Details:      details,
		RequestsSent: 1,
		StatusCodes:  []int{resp.StatusCode},
	})
	if len(exposed) > 0 {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingDataExposure,
			Severity:        scan.SeverityHigh,
			Title:           "Sensitive data in public profile response",
			Description:     fmt.Sprintf("Fields exposed: %v", exposed),
			Endpoint:        p.APIPrefix + "/users/:username",
			Evidence:        fmt.Sprintf("%v", exposed),
			Classifications: []scan.ClassificationID{scan.OWASP("API3:2023")},
			Remediation:     "Remove sensitive fields from public profile serialization",
			CVSSEstimate:    7.0,
		})
	}
}
