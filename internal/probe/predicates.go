package probe

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Text predicates used by the probes. Each one is a plain substring or key
// test; matching rules (case sensitivity, what text is searched) are stated
// on the function.

// containsAnyFold returns the needles found in haystack, case-insensitively,
// in needle order.
func containsAnyFold(haystack string, needles []string) []string {
	lower := strings.ToLower(haystack)
	var found []string
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			found = append(found, n)
		}
	}
	return found
}

// containsAny returns the needles found in haystack, case-sensitively.
func containsAny(haystack string, needles []string) []string {
	var found []string
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			found = append(found, n)
		}
	}
	return found
}

// reflects reports whether payload appears verbatim (case-sensitive) in body.
func reflects(body, payload string) bool {
	return payload != "" && strings.Contains(body, payload)
}

// errorLeaks classifies internal details in an error page:
//   - "stack trace": "stack" anywhere, case-insensitive
//   - "node_modules path": "node_modules", case-sensitive
//   - "source file path": both "at " and ".ts:", case-sensitive
//   - "SQL query": "SELECT" or "FROM", case-sensitive
func errorLeaks(body string) []string {
	var leaks []string
	if strings.Contains(strings.ToLower(body), "stack") {
		leaks = append(leaks, "stack trace")
	}
	if strings.Contains(body, "node_modules") {
		leaks = append(leaks, "node_modules path")
	}
	if strings.Contains(body, "at ") && strings.Contains(body, ".ts:") {
		leaks = append(leaks, "source file path")
	}
	if strings.Contains(body, "SELECT") || strings.Contains(body, "FROM") {
		leaks = append(leaks, "SQL query")
	}
	return leaks
}

// jsonObject decodes body as a JSON object. Anything else, including a
// malformed body, yields an empty map.
func jsonObject(body []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

// nested walks obj along keys, returning an empty map when any step is
// missing or not an object.
func nested(obj map[string]any, keys ...string) map[string]any {
	cur := obj
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return map[string]any{}
		}
		cur = next
	}
	return cur
}

// stringField returns obj[key] when it is a string.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// presentKeys returns the keys of obj that appear in candidates, in candidate
// order. Key comparison is exact.
func presentKeys(obj map[string]any, candidates []string) []string {
	var found []string
	for _, c := range candidates {
		if _, ok := obj[c]; ok {
			found = append(found, c)
		}
	}
	return found
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// errorMessage extracts error.message from a JSON error envelope.
func errorMessage(body []byte) string {
	return stringField(nested(jsonObject(body), "error"), "message")
}

// queryEscape percent-encodes s for a query value, using %20 for spaces.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
