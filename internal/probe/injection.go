package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// Injection sends SQL, NoSQL and shell metacharacter payloads into login,
// search and registration.
type Injection struct {
	SQLPayloads []string
	// QueryPayloads is how many of SQLPayloads are also tried in the search query.
	QueryPayloads   int
	NoSQLPayloads   []any
	CommandPayloads []string
	APIPrefix       string
	Options         Options
}

func (p *Injection) Name() string            { return "Injection attacks" }
func (p *Injection) Category() scan.Category { return scan.CategoryInjection }

func (p *Injection) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())
	loginEndpoint := p.APIPrefix + "/auth/login"

	// SQL in login: any 500 or 200 is a vulnerability signal.
	vulnerable := false
	errors500 := 0
	unanswered := 0
	for _, payload := range p.SQLPayloads {
		resp := login(ctx, req, payload, payload)
		if !resp.Reachable() {
			unanswered++
			continue
		}
		switch resp.StatusCode {
		case http.StatusInternalServerError:
			errors500++
			vulnerable = true
		case http.StatusOK:
			vulnerable = true
			rec.finding(scan.FindingParams{
				Category:        scan.FindingInjection,
				Severity:        scan.SeverityCritical,
				Title:           "SQL Injection in login endpoint",
				Description:     "Login succeeded with SQL payload: " + payload,
				Endpoint:        loginEndpoint,
				Evidence:        fmt.Sprintf("Payload: %s, Status: %d", payload, resp.StatusCode),
				Classifications: []scan.ClassificationID{scan.MITRE("T1190"), scan.OWASP("A03:2021")},
				Remediation:     "Use parameterized queries, validate input types",
				CVSSEstimate:    9.8,
			})
		}
	}
	verdict := "Protected"
	if vulnerable {
		verdict = "VULNERABLE"
	}
	rec.result(scan.ResultParams{
		TestName:     "SQL Injection - Login",
		Passed:       !vulnerable && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(fmt.Sprintf("500 errors: %d/%d. %s", errors500, len(p.SQLPayloads), verdict), unanswered),
		RequestsSent: len(p.SQLPayloads),
	})

	queryPayloads := p.SQLPayloads[:min(p.QueryPayloads, len(p.SQLPayloads))]
	queryVulnerable := false
	unanswered = 0
	for _, payload := range queryPayloads {
		resp := search(ctx, req, payload)
		if !resp.Reachable() {
			unanswered++
		} else if resp.StatusCode == http.StatusInternalServerError {
			queryVulnerable = true
		}
	}
	rec.result(scan.ResultParams{
		TestName:     "SQL Injection - Query params",
		Passed:       !queryVulnerable && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(pick(queryVulnerable, "500 errors detected", "Protected"), unanswered),
		RequestsSent: len(queryPayloads),
	})

	nosqlVulnerable := false
	unanswered = 0
	for _, payload := range p.NoSQLPayloads {
		resp := login(ctx, req, payload, payload)
		if !resp.Reachable() {
			unanswered++
		} else if resp.StatusCode == http.StatusOK {
			nosqlVulnerable = true
		}
	}
	rec.result(scan.ResultParams{
		TestName:     "NoSQL Injection - Login",
		Passed:       !nosqlVulnerable && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(pick(nosqlVulnerable, "NoSQL injection succeeded", "Protected"), unanswered),
		RequestsSent: len(p.NoSQLPayloads),
	})

	cmdVulnerable := false
	unanswered = 0
	for _, payload := range p.CommandPayloads {
		id := newIdentity("cmd")
		resp := req.Do(ctx, httpclient.Request{
			Method: http.MethodPost,
			Path:   "/auth/register",
			JSON:   id.registration(map[string]any{"username": payload}),
		})
		if !resp.Reachable() {
			unanswered++
		} else if resp.StatusCode == http.StatusOK {
			cmdVulnerable = true
		}
	}
	rec.result(scan.ResultParams{
		TestName:     "Command Injection - Register",
		Passed:       !cmdVulnerable && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(pick(cmdVulnerable, "Command injection in username accepted", "Protected"), unanswered),
		RequestsSent: len(p.CommandPayloads),
	})

	// Raised for any vulnerable login, including a bypass with no 500s.
	if vulnerable {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingInjection,
			Severity:        scan.SeverityHigh,
			Title:           "Potential SQL Injection causing 500 errors",
			Description:     fmt.Sprintf("%d SQL payloads caused server errors", errors500),
			Endpoint:        loginEndpoint,
			Evidence:        "500 errors with SQL payloads",
			Classifications: []scan.ClassificationID{scan.MITRE("T1190"), scan.OWASP("A03:2021")},
			Remediation:     "Ensure all SQL queries use parameterized statements, add input validation",
			CVSSEstimate:    8.0,
		})
	}
	return rec.done()
}

func search(ctx context.Context, req Requester, q string) httpclient.Response {
	return req.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/discover/search?q=" + queryEscape(q),
	})
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
