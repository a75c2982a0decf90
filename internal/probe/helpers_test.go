package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

const testPrefix = "/api/v1"

// startAPI serves handler under the API prefix and returns a client for it.
func startAPI(t *testing.T, handler http.Handler) *httpclient.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(testPrefix+"/", http.StripPrefix(testPrefix, handler))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return newTestClient(t, server.URL+testPrefix)
}

func newTestClient(t *testing.T, baseURL string) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(httpclient.Config{
		BaseURL:  baseURL,
		Timeout:  2 * time.Second,
		Retries:  0,
		Backoff:  time.Millisecond,
		PoolSize: 60,
	})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// deadClient points at a server that has already been shut down.
func deadClient(t *testing.T) *httpclient.Client {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return newTestClient(t, url+testPrefix)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]any {
	return map[string]any{"error": map[string]any{"message": msg}}
}

func decodeBody(r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body == nil {
		body = map[string]any{}
	}
	return body
}

func setHardenedHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Strict-Transport-Security", "max-age=31536000")
	h.Set("Content-Security-Policy", "default-src 'none'")
	h.Set("X-XSS-Protection", "0")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Permissions-Policy", "geolocation=()")
}

func run(t *testing.T, p Probe, req Requester) Report {
	t.Helper()
	return p.Run(context.Background(), req)
}

func resultByName(t *testing.T, rep Report, name string) scan.Result {
	t.Helper()
	for _, r := range rep.Results {
		if r.TestName() == name {
			return r
		}
	}
	t.Fatalf("result %q not found in %v", name, resultNames(rep))
	return scan.Result{}
}

func hasResult(rep Report, name string) bool {
	for _, r := range rep.Results {
		if r.TestName() == name {
			return true
		}
	}
	return false
}

func resultNames(rep Report) []string {
	names := make([]string, 0, len(rep.Results))
	for _, r := range rep.Results {
		names = append(names, r.TestName())
	}
	return names
}

func findingTitles(rep Report) []string {
	titles := make([]string, 0, len(rep.Findings))
	for _, f := range rep.Findings {
		titles = append(titles, f.Title())
	}
	return titles
}

func severities(rep Report) []scan.Severity {
	out := make([]scan.Severity, 0, len(rep.Findings))
	for _, f := range rep.Findings {
		out = append(out, f.Severity())
	}
	return out
}

func assertPassed(t *testing.T, rep Report, name string, want bool) {
	t.Helper()
	r := resultByName(t, rep, name)
	if r.Passed() != want {
		t.Errorf("%s: passed=%v, want %v (details: %s)", name, r.Passed(), want, r.Details())
	}
}

func assertCategory(t *testing.T, rep Report, want scan.Category) {
	t.Helper()
	for _, r := range rep.Results {
		if r.Category() != want {
			t.Errorf("result %q has category %s, want %s", r.TestName(), r.Category(), want)
		}
	}
}
