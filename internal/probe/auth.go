package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// AuthBruteForce checks that the login endpoint resists password guessing,
// credential stuffing and account enumeration.
type AuthBruteForce struct {
	AdminEmail       string
	Passwords        []string
	StuffingAccounts int
	StuffingPassword string
	APIPrefix        string
	Options          Options
}

func (p *AuthBruteForce) Name() string            { return "Authentication brute force" }
func (p *AuthBruteForce) Category() scan.Category { return scan.CategoryAuth }

func (p *AuthBruteForce) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())
	endpoint := p.APIPrefix + "/auth/login"

	start := time.Now()
	var statuses []int
	sent := 0
	for _, pwd := range p.Passwords {
		resp := login(ctx, req, p.AdminEmail, pwd)
		sent++
		if !resp.Reachable() {
			continue
		}
		statuses = append(statuses, resp.StatusCode)
		if resp.StatusCode == http.StatusOK {
			rec.finding(scan.FindingParams{
				Category:        scan.FindingAuthentication,
				Severity:        scan.SeverityCritical,
				Title:           "Weak credentials discovered via brute force",
				Description:     "Login succeeded with password from common list",
				Endpoint:        endpoint,
				Evidence:        fmt.Sprintf("Password found in top %d common passwords", len(p.Passwords)),
				Classifications: []scan.ClassificationID{scan.MITRE("T1110.001"), scan.OWASP("A07:2021")},
				Remediation:     "Enforce strong password policy, implement account lockout",
				CVSSEstimate:    9.0,
			})
			break
		}
	}
	elapsed := msSince(start)

	limited := countStatus(statuses, http.StatusTooManyRequests)
	details := "No responses"
	if len(statuses) > 0 {
		details = fmt.Sprintf("Rate limited: %d/%d requests. Statuses: %s", limited, len(statuses), histogram(statuses))
	}
	rec.result(scan.ResultParams{
		TestName:     "Login brute force resistance",
		Passed:       limited > 0,
		Details:      details,
		DurationMS:   elapsed,
		RequestsSent: sent,
		StatusCodes:  statuses,
	})
	if limited == 0 {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingRateLimiting,
			Severity:        scan.SeverityHigh,
			Title:           "Auth brute force not effectively rate limited",
			Description:     fmt.Sprintf("Sent %d login attempts without being rate limited", len(statuses)),
			Endpoint:        endpoint,
			Evidence:        fmt.Sprintf("Status codes: %v...", statuses[:min(10, len(statuses))]),
			Classifications: []scan.ClassificationID{scan.MITRE("T1110"), scan.OWASP("API4:2023")},
			Remediation:     "Implement stricter rate limiting or account lockout after N failed attempts",
			CVSSEstimate:    7.5,
		})
	}

	var stuffing []int
	for i := 0; i < p.StuffingAccounts; i++ {
		resp := login(ctx, req, fmt.Sprintf("user%d@example.com", i), p.StuffingPassword)
		if resp.Reachable() {
			stuffing = append(stuffing, resp.StatusCode)
		}
	}
	blocked := countStatus(stuffing, http.StatusTooManyRequests)
	rec.result(scan.ResultParams{
		TestName:     "Credential stuffing resistance",
		Passed:       blocked > 0,
		Details:      fmt.Sprintf("Blocked: %d/%d", blocked, len(stuffing)),
		RequestsSent: p.StuffingAccounts,
		StatusCodes:  stuffing,
	})

	unknown := login(ctx, req, "definitelynotexists@nobody.xyz", "Wrong123")
	known := login(ctx, req, p.AdminEmail, "Wrong123")
	if !unknown.Reachable() || !known.Reachable() {
		rec.unreachable(p.Options, "Email enumeration prevention", 2)
		return rec.done()
	}
	msgUnknown := loginMessage(unknown)
	msgKnown := loginMessage(known)
	same := msgUnknown == msgKnown ||
		unknown.StatusCode == http.StatusTooManyRequests ||
		known.StatusCode == http.StatusTooManyRequests
	rec.result(scan.ResultParams{
		TestName:     "Email enumeration prevention",
		Passed:       same,
		Details:      fmt.Sprintf("Non-existent: '%s' vs Existing: '%s'", msgUnknown, msgKnown),
		RequestsSent: 2,
		StatusCodes:  []int{unknown.StatusCode, known.StatusCode},
	})
	if !same {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingAuthentication,
			Severity:        scan.SeverityMedium,
			Title:           "Email enumeration possible via login error messages",
			Description:     "Different error messages for existing vs non-existing emails",
			Endpoint:        endpoint,
			Evidence:        fmt.Sprintf("Non-existent: '%s', Existing: '%s'", msgUnknown, msgKnown),
			Classifications: []scan.ClassificationID{scan.MITRE("T1589.002"), scan.OWASP("A07:2021")},
			Remediation:     "Return identical error messages for all login failures",
			CVSSEstimate:    5.0,
		})
	}
	return rec.done()
}

func login(ctx context.Context, req Requester, email, password any) httpclient.Response {
	return req.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		JSON:   map[string]any{"email": email, "password": password},
	})
}

// loginMessage is error.message of a login failure; rate-limited answers
// carry no comparable message.
func loginMessage(resp httpclient.Response) string {
	if resp.StatusCode == http.StatusTooManyRequests {
		return ""
	}
	return errorMessage(resp.Body)
}
