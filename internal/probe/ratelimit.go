package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/dispatch"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// Burst sizes used by RateLimit.
const (
	DefaultGlobalBurst       = 120
	DefaultGlobalConcurrency = 20
	DefaultAuthAttempts      = 15
	DefaultConnBurst         = 50
	DefaultConnConcurrency   = 50
	DefaultConnTimeout       = 10 * time.Second
)

// RateLimit floods the API to confirm global and per-route limits are
// enforced and that it survives many simultaneous connections.
type RateLimit struct {
	GlobalBurst       int
	GlobalConcurrency int
	AuthAttempts      int
	ConnBurst         int
	ConnConcurrency   int
	ConnTimeout       time.Duration
	APIPrefix         string
}

func (p *RateLimit) Name() string            { return "Rate limiting" }
func (p *RateLimit) Category() scan.Category { return scan.CategoryRate }

// MaxConcurrency is the widest burst this probe dispatches.
func (p *RateLimit) MaxConcurrency() int {
	return max(p.GlobalConcurrency, p.ConnConcurrency)
}

func (p *RateLimit) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())

	global, err := dispatch.Burst(ctx, req, httpclient.Request{Method: http.MethodGet, Path: "/health"},
		p.GlobalBurst, p.GlobalConcurrency)
	if err != nil {
		rec.result(scan.ResultParams{TestName: "Global rate limit (100 req/min)", Details: err.Error()})
	} else {
		blocked := global.Count(http.StatusTooManyRequests)
		rec.result(scan.ResultParams{
			TestName:     "Global rate limit (100 req/min)",
			Passed:       blocked > 0,
			Details:      fmt.Sprintf("Blocked: %d/%d in %dms", blocked, p.GlobalBurst, global.Elapsed.Milliseconds()),
			DurationMS:   float64(global.Elapsed.Microseconds()) / 1000,
			RequestsSent: p.GlobalBurst,
			StatusCodes:  global.StatusCodes,
		})
		if blocked == 0 {
			rec.finding(scan.FindingParams{
				Category:        scan.FindingRateLimiting,
				Severity:        scan.SeverityMedium,
				Title:           "Global rate limit not enforced or Redis unavailable",
				Description:     fmt.Sprintf("%d burst requests completed without rate limiting", p.GlobalBurst),
				Endpoint:        p.APIPrefix + "/health",
				Evidence:        fmt.Sprintf("0/%d requests blocked", p.GlobalBurst),
				Classifications: []scan.ClassificationID{scan.MITRE("T1498"), scan.OWASP("API4:2023")},
				Remediation:     "Ensure the rate limiter backing store is configured in production",
				CVSSEstimate:    5.0,
			})
		}
	}

	var authCodes []int
	for i := 0; i < p.AuthAttempts; i++ {
		resp := login(ctx, req, fmt.Sprintf("test%d@x.com", i), "x")
		if resp.Reachable() {
			authCodes = append(authCodes, resp.StatusCode)
		}
	}
	authBlocked := countStatus(authCodes, http.StatusTooManyRequests)
	rec.result(scan.ResultParams{
		TestName:     "Auth rate limit (10 req/15min)",
		Passed:       authBlocked > 0,
		Details:      fmt.Sprintf("Blocked: %d/%d", authBlocked, p.AuthAttempts),
		RequestsSent: p.AuthAttempts,
		StatusCodes:  authCodes,
	})

	conn, err := dispatch.Burst(ctx, req, httpclient.Request{
		Method:  http.MethodGet,
		Path:    "/health",
		Header:  map[string]string{"Connection": "keep-alive"},
		Timeout: p.ConnTimeout,
		NoRetry: true,
	}, p.ConnBurst, p.ConnConcurrency)
	if err != nil {
		rec.result(scan.ResultParams{TestName: "Concurrent connection handling", Details: err.Error()})
		return rec.done()
	}
	ok := conn.Count(http.StatusOK)
	rec.result(scan.ResultParams{
		TestName:     "Concurrent connection handling",
		Passed:       ok > 0,
		Details:      fmt.Sprintf("Success: %d/%d in %dms", ok, p.ConnBurst, conn.Elapsed.Milliseconds()),
		DurationMS:   float64(conn.Elapsed.Microseconds()) / 1000,
		RequestsSent: p.ConnBurst,
		StatusCodes:  conn.StatusCodes,
	})
	return rec.done()
}
