// Package constants centralizes defaults shared across the scanner.
//
// File permissions, request/retry budgets, and report truncation limits live
// here so cmd/ and internal/ packages reference the same values without
// introducing import cycles.
package constants
