// Package probe holds the fixed catalogue of API security probes.
//
// A Probe is a named, categorized unit of work. It talks to the target only
// through a Requester, decides pass/fail from explicit predicates (see
// predicates.go) and returns its Results and Findings in a Report. Probes
// never touch run storage; the application Runner appends what they return.
//
// Attack payloads and target fixtures live in payloads.go as plain data and
// are injected into the probe structs by NewRegistry, so a probe's logic is
// independent of the concrete strings it sends.
//
// Negative-assertion probes ("X must be rejected") follow an unreachable
// policy. By default a missing response counts as a pass (fail-open); with
// Options.StrictUnreachable every such assertion fails closed instead.
package probe
