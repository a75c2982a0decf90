package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// Recon looks for information the API volunteers to anonymous clients.
type Recon struct {
	LeakPaths       []string
	DisclosureWords []string
	// APIPrefix is stripped from leak paths, which are then resolved against
	// the base URL like every other request.
	APIPrefix string
	Options   Options
}

func (p *Recon) Name() string            { return "Reconnaissance" }
func (p *Recon) Category() scan.Category { return scan.CategoryRecon }

func (p *Recon) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())

	start := time.Now()
	health := req.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	elapsed := msSince(start)

	if health.Reachable() {
		data := map[string]any{}
		disclosed := []string(nil)
		if health.StatusCode == http.StatusOK {
			data = jsonObject(health.Body)
			disclosed = containsAnyFold(health.Text(), p.DisclosureWords)
		}
		rec.result(scan.ResultParams{
			TestName:     "Health endpoint info disclosure",
			Passed:       len(disclosed) == 0,
			Details:      fmt.Sprintf("Status: %d, Keys: %v", health.StatusCode, sortedKeys(data)),
			DurationMS:   elapsed,
			RequestsSent: 1,
			StatusCodes:  []int{health.StatusCode},
		})
		if version, ok := data["version"]; ok {
			rec.finding(scan.FindingParams{
				Category:        scan.FindingInformationDisclosure,
				Severity:        scan.SeverityLow,
				Title:           "API version exposed in health endpoint",
				Description:     fmt.Sprintf("Health endpoint reveals API version: %v", version),
				Endpoint:        p.APIPrefix + "/health",
				Evidence:        health.Text(),
				Classifications: []scan.ClassificationID{scan.MITRE("T1592"), scan.OWASP("A05:2021")},
				Remediation:     "Consider removing version info from public health endpoint in production",
				CVSSEstimate:    2.0,
			})
		}

		server := headerOr(health, "Server", "Not Set")
		poweredBy := headerOr(health, "X-Powered-By", "Not Set")
		rec.result(scan.ResultParams{
			TestName: "Server header disclosure",
			Passed:   server == "Not Set" && poweredBy == "Not Set",
			Details:  fmt.Sprintf("Server: %s, X-Powered-By: %s", server, poweredBy),
		})
		if poweredBy != "Not Set" {
			rec.finding(scan.FindingParams{
				Category:        scan.FindingInformationDisclosure,
				Severity:        scan.SeverityLow,
				Title:           "X-Powered-By header reveals technology stack",
				Description:     "Server exposes technology: " + poweredBy,
				Endpoint:        "ALL",
				Evidence:        "X-Powered-By: " + poweredBy,
				Classifications: []scan.ClassificationID{scan.MITRE("T1592.004"), scan.OWASP("A05:2021")},
				Remediation:     "Remove X-Powered-By header",
				CVSSEstimate:    2.0,
			})
		}
	} else {
		rec.result(scan.ResultParams{
			TestName:     "Health endpoint reachability",
			Passed:       false,
			Details:      "Target unreachable",
			DurationMS:   elapsed,
			RequestsSent: 1,
		})
	}

	var leaked []string
	unanswered := 0
	for _, path := range p.LeakPaths {
		resp := req.Do(ctx, httpclient.Request{
			Method: http.MethodGet,
			Path:   p.stripPrefix(path),
		})
		switch {
		case !resp.Reachable():
			unanswered++
		case resp.StatusCode == http.StatusOK:
			leaked = append(leaked, path)
		}
	}
	details := "No sensitive paths exposed"
	if len(leaked) > 0 {
		details = fmt.Sprintf("Exposed paths: %v", leaked)
	}
	rec.result(scan.ResultParams{
		TestName:     "Sensitive path exposure",
		Passed:       len(leaked) == 0 && p.Options.acceptUnanswered(unanswered),
		Details:      withUnanswered(details, unanswered),
		RequestsSent: len(p.LeakPaths),
	})

	return rec.done()
}

func (p *Recon) stripPrefix(path string) string {
	if p.APIPrefix == "" {
		return path
	}
	return strings.Replace(path, p.APIPrefix, "", 1)
}

func headerOr(resp httpclient.Response, name, fallback string) string {
	if v := resp.HeaderValue(name); v != "" {
		return v
	}
	return fallback
}

// withUnanswered appends the unanswered count to details when non-zero.
func withUnanswered(details string, unanswered int) string {
	if unanswered == 0 {
		return details
	}
	return fmt.Sprintf("%s (%d unanswered)", details, unanswered)
}
