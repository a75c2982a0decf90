package probe

import (
	"net/http"
	"testing"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name         string
		setHeaders   func(http.Header)
		wantPassed   bool
		wantFindings []string
		wantSeverity []scan.Severity
	}{
		{
			name:       "fully hardened",
			setHeaders: setHardenedHeaders,
			wantPassed: true,
		},
		{
			name: "two problems tolerated",
			setHeaders: func(h http.Header) {
				setHardenedHeaders(h)
				h.Set("X-Content-Type-Options", "sniff")
				h.Del("Content-Security-Policy")
			},
			wantPassed: true,
			wantFindings: []string{
				"Missing security header: X-Content-Type-Options (got: sniff, expected: nosniff)",
				"Missing security header: Content-Security-Policy",
			},
			wantSeverity: []scan.Severity{scan.SeverityLow, scan.SeverityMedium},
		},
		{
			name: "three problems fail",
			setHeaders: func(h http.Header) {
				setHardenedHeaders(h)
				h.Set("X-Frame-Options", "ALLOWALL")
				h.Del("Strict-Transport-Security")
				h.Del("Referrer-Policy")
			},
			wantPassed: false,
			wantFindings: []string{
				"Missing security header: X-Frame-Options (got: ALLOWALL)",
				"Missing security header: Strict-Transport-Security",
				"Missing security header: Referrer-Policy",
			},
			wantSeverity: []scan.Severity{scan.SeverityLow, scan.SeverityMedium, scan.SeverityLow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.setHeaders(w.Header())
				w.WriteHeader(http.StatusOK)
			}))
			rep := run(t, &SecurityHeaders{Specs: DefaultHeaderSpecs}, client)

			assertCategory(t, rep, scan.CategoryHeaders)
			assertPassed(t, rep, "Security headers presence", tt.wantPassed)
			got := findingTitles(rep)
			if len(got) != len(tt.wantFindings) {
				t.Fatalf("findings = %v, want %v", got, tt.wantFindings)
			}
			for i := range got {
				if got[i] != tt.wantFindings[i] {
					t.Errorf("finding %d = %q, want %q", i, got[i], tt.wantFindings[i])
				}
				if rep.Findings[i].Severity() != tt.wantSeverity[i] {
					t.Errorf("finding %d severity %s, want %s", i, rep.Findings[i].Severity(), tt.wantSeverity[i])
				}
			}
		})
	}
}

func TestSecurityHeaders_NoHeaders(t *testing.T) {
	client := startAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rep := run(t, &SecurityHeaders{Specs: DefaultHeaderSpecs}, client)

	assertPassed(t, rep, "Security headers presence", false)
	if len(rep.Findings) != 7 {
		t.Fatalf("expected 7 findings, got %d", len(rep.Findings))
	}
	medium := 0
	for _, f := range rep.Findings {
		if f.Severity() == scan.SeverityMedium {
			medium++
		}
	}
	if medium != 2 {
		t.Errorf("expected CSP and HSTS as MEDIUM, got %d MEDIUM findings", medium)
	}
}

func TestSecurityHeaders_Unreachable(t *testing.T) {
	rep := run(t, &SecurityHeaders{Specs: DefaultHeaderSpecs}, deadClient(t))
	if len(rep.Results) != 0 || len(rep.Findings) != 0 {
		t.Errorf("expected nothing recorded, got %v", resultNames(rep))
	}

	strict := run(t, &SecurityHeaders{Specs: DefaultHeaderSpecs, Options: Options{StrictUnreachable: true}}, deadClient(t))
	assertPassed(t, strict, "Security headers presence", false)
}
