package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// privilegedFields are smuggled into a registration body.
var privilegedFields = map[string]any{
	"role":          "admin",
	"isActive":      true,
	"emailVerified": true,
	"kycStatus":     "approved",
	"passwordHash":  "injected-hash",
}

// MassAssignment registers an account with privileged fields attached and
// checks the server ignored them.
type MassAssignment struct {
	// DefaultRole is the role a fresh account must end up with.
	DefaultRole string
	APIPrefix   string
	Options     Options
}

func (p *MassAssignment) Name() string            { return "Mass assignment" }
func (p *MassAssignment) Category() scan.Category { return scan.CategoryMassAssignment }

func (p *MassAssignment) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())
	const testName = "Mass assignment - Register role"

	id := newIdentity("mass")
	resp := req.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		JSON:   id.registration(privilegedFields),
	})

	if resp.StatusCode != http.StatusOK {
		if !resp.Reachable() && p.Options.StrictUnreachable {
			rec.unreachable(p.Options, testName, 1)
			return rec.done()
		}
		rec.result(scan.ResultParams{
			TestName:     testName,
			Passed:       true,
			Details:      "Registration with extra fields returned " + statusLabel(resp),
			RequestsSent: 1,
			StatusCodes:  statusCodesOf(resp),
		})
		return rec.done()
	}

	user := nested(jsonObject(resp.Body), "data", "user")
	role := user["role"]
	roleSafe := role == p.DefaultRole
	rec.result(scan.ResultParams{
		TestName:     testName,
		Passed:       roleSafe,
		Details:      fmt.Sprintf("Role: %v, KYC: %v", role, user["kycStatus"]),
		RequestsSent: 1,
		StatusCodes:  []int{resp.StatusCode},
	})
	if !roleSafe {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingMassAssignment,
			Severity:        scan.SeverityCritical,
			Title:           "Role escalation via mass assignment in registration",
			Description:     "User can set their own role to 'admin' during registration",
			Endpoint:        p.APIPrefix + "/auth/register",
			Evidence:        fmt.Sprintf("Sent role:'admin', got role:'%v'", role),
			Classifications: []scan.ClassificationID{scan.MITRE("T1078.004"), scan.OWASP("API6:2023")},
			Remediation:     "Whitelist allowed fields in registration handler",
			CVSSEstimate:    9.5,
		})
	}
	return rec.done()
}
