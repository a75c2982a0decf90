package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// CORS sends preflights from hostile origins and checks the response policy.
type CORS struct {
	HostileOrigins []string
	// CredentialOrigin is the origin used for the credentials + wildcard check.
	CredentialOrigin string
	Options          Options
}

func (p *CORS) Name() string            { return "CORS configuration" }
func (p *CORS) Category() scan.Category { return scan.CategoryCORS }

func (p *CORS) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())

	var misconfigured []string
	unanswered := 0
	for _, origin := range p.HostileOrigins {
		resp := req.Do(ctx, httpclient.Request{
			Method: http.MethodOptions,
			Path:   "/health",
			Header: map[string]string{
				"Origin":                        origin,
				"Access-Control-Request-Method": http.MethodGet,
			},
		})
		if !resp.Reachable() {
			unanswered++
			continue
		}
		if allowed := resp.HeaderValue("Access-Control-Allow-Origin"); originAccepted(allowed, origin) {
			misconfigured = append(misconfigured, fmt.Sprintf("%s -> %s", origin, allowed))
		}
	}
	details := "All malicious origins rejected"
	if len(misconfigured) > 0 {
		details = fmt.Sprintf("Misconfigured: %v", misconfigured)
	}
	rec.result(scan.ResultParams{
		TestName:     "CORS origin validation",
		Passed:       len(misconfigured) == 0 && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(details, unanswered),
		RequestsSent: len(p.HostileOrigins),
	})
	for _, mc := range misconfigured {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingCORS,
			Severity:        scan.SeverityHigh,
			Title:           "CORS misconfiguration allows untrusted origin",
			Description:     "Origin accepted: " + mc,
			Endpoint:        "ALL",
			Evidence:        mc,
			Classifications: []scan.ClassificationID{scan.OWASP("A05:2021")},
			Remediation:     "Strictly whitelist allowed origins, never use wildcard with credentials",
			CVSSEstimate:    6.5,
		})
	}

	resp := req.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/health",
		Header: map[string]string{"Origin": p.CredentialOrigin},
	})
	if !resp.Reachable() {
		rec.unreachable(p.Options, "CORS credentials + wildcard check", 1)
		return rec.done()
	}
	creds := resp.HeaderValue("Access-Control-Allow-Credentials")
	allowOrigin := resp.HeaderValue("Access-Control-Allow-Origin")
	rec.result(scan.ResultParams{
		TestName:     "CORS credentials + wildcard check",
		Passed:       !(creds == "true" && allowOrigin == "*"),
		Details:      fmt.Sprintf("Credentials: %s, Origin: %s", creds, allowOrigin),
		RequestsSent: 1,
		StatusCodes:  []int{resp.StatusCode},
	})
	return rec.done()
}

// originAccepted reports whether Access-Control-Allow-Origin grants origin:
// an exact echo or the wildcard.
func originAccepted(allowed, origin string) bool {
	return allowed == origin || allowed == "*"
}
