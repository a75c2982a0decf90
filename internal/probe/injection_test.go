package probe

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
)

func newInjection(opts Options) *Injection {
	pl := DefaultPayloads()
	return &Injection{
		SQLPayloads:     pl.SQLPayloads,
		QueryPayloads:   pl.SQLQueryPayloads,
		NoSQLPayloads:   pl.NoSQLPayloads,
		CommandPayloads: pl.CommandPayloads,
		APIPrefix:       testPrefix,
		Options:         opts,
	}
}

func TestInjection_Vulnerable(t *testing.T) {
	var (
		mu        sync.Mutex
		usernames []string
	)
	client := startAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			email, ok := decodeBody(r)["email"].(string)
			switch {
			case !ok:
				writeJSON(w, http.StatusBadRequest, errorBody("Validation failed"))
			case strings.Contains(email, "'"):
				writeJSON(w, http.StatusInternalServerError, errorBody("syntax error"))
			default:
				writeJSON(w, http.StatusUnauthorized, errorBody("Invalid credentials"))
			}
		case "/discover/search":
			if strings.Contains(r.URL.Query().Get("q"), "'") {
				writeJSON(w, http.StatusInternalServerError, errorBody("syntax error"))
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
		case "/auth/register":
			body := decodeBody(r)
			mu.Lock()
			usernames = append(usernames, body["username"].(string))
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": body}})
		default:
			http.NotFound(w, r)
		}
	}))

	rep := run(t, newInjection(Options{}), client)

	assertCategory(t, rep, scan.CategoryInjection)
	assertPassed(t, rep, "SQL Injection - Login", false)
	assertPassed(t, rep, "SQL Injection - Query params", false)
	assertPassed(t, rep, "NoSQL Injection - Login", true)
	assertPassed(t, rep, "Command Injection - Register", false)

	if got := resultByName(t, rep, "SQL Injection - Login").Details(); got != "500 errors: 9/10. VULNERABLE" {
		t.Errorf("unexpected details %q", got)
	}
	if len(rep.Findings) != 1 || rep.Findings[0].Severity() != scan.SeverityHigh {
		t.Fatalf("expected one HIGH finding, got %v", findingTitles(rep))
	}
	if rep.Findings[0].Description() != "9 SQL payloads caused server errors" {
		t.Errorf("unexpected description %q", rep.Findings[0].Description())
	}
	want := DefaultPayloads().CommandPayloads
	mu.Lock()
	defer mu.Unlock()
	if len(usernames) != len(want) {
		t.Fatalf("expected %d registrations, got %d", len(want), len(usernames))
	}
	for i := range want {
		if usernames[i] != want[i] {
			t.Errorf("registration %d username %q, want %q", i, usernames[i], want[i])
		}
	}
}

func TestInjection_LoginBypass(t *testing.T) {
	client := startAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			switch email := decodeBody(r)["email"].(type) {
			case map[string]any:
				writeJSON(w, http.StatusOK, map[string]any{"data": "token"})
				return
			case string:
				if strings.HasPrefix(email, "admin'") {
					writeJSON(w, http.StatusOK, map[string]any{"data": "token"})
					return
				}
			}
		}
		writeJSON(w, http.StatusBadRequest, errorBody("bad request"))
	}))

	rep := run(t, newInjection(Options{}), client)

	assertPassed(t, rep, "SQL Injection - Login", false)
	assertPassed(t, rep, "NoSQL Injection - Login", false)
	assertPassed(t, rep, "Command Injection - Register", true)
	if len(rep.Findings) != 2 || rep.Findings[0].Severity() != scan.SeverityCritical {
		t.Fatalf("expected CRITICAL then HIGH finding, got %v", findingTitles(rep))
	}
	if !strings.Contains(rep.Findings[0].Evidence(), "admin'--") {
		t.Errorf("payload missing from evidence %q", rep.Findings[0].Evidence())
	}
	high := rep.Findings[1]
	if high.Severity() != scan.SeverityHigh || high.Description() != "0 SQL payloads caused server errors" {
		t.Errorf("bypass without 500s must still raise the HIGH finding, got %s %q", high.Severity(), high.Description())
	}
}

func TestInjection_UnreachablePolicy(t *testing.T) {
	rep := run(t, newInjection(Options{}), deadClient(t))
	for _, r := range rep.Results {
		if !r.Passed() {
			t.Errorf("%s should fail open: %s", r.TestName(), r.Details())
		}
	}
	strict := run(t, newInjection(Options{StrictUnreachable: true}), deadClient(t))
	for _, r := range strict.Results {
		if r.Passed() {
			t.Errorf("%s should fail closed", r.TestName())
		}
	}
}
