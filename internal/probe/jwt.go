package probe

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// JWT forges tokens the API must refuse: unsigned, signed with a guessable
// secret, expired and tampered.
type JWT struct {
	WeakSecrets   []string
	TamperedToken string
	APIPrefix     string
	Options       Options
	// now is overridable in tests.
	now func() time.Time
}

func (p *JWT) Name() string            { return "JWT attacks" }
func (p *JWT) Category() scan.Category { return scan.CategoryJWT }

func (p *JWT) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *JWT) Run(ctx context.Context, req Requester) Report {
	rec := newRecorder(p.Category())
	now := p.clock()
	endpoint := p.APIPrefix + "/auth/me"

	adminClaims := jwt.MapClaims{"sub": "admin-id", "role": "admin", "exp": now.Add(time.Hour).Unix()}
	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, adminClaims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		panic(fmt.Errorf("sign alg:none token: %w", err))
	}
	resp := bearer(ctx, req, "/auth/me", noneToken)
	noneBlocked := p.Options.rejected(resp, http.StatusUnauthorized)
	rec.result(scan.ResultParams{
		TestName:     "JWT none algorithm attack",
		Passed:       noneBlocked,
		Details:      "Status: " + statusLabel(resp),
		RequestsSent: 1,
		StatusCodes:  statusCodesOf(resp),
	})
	if !noneBlocked && resp.Reachable() {
		rec.finding(scan.FindingParams{
			Category:        scan.FindingAuthentication,
			Severity:        scan.SeverityCritical,
			Title:           "JWT none algorithm accepted",
			Description:     "Server accepts JWT tokens with alg:none, allowing arbitrary token forgery",
			Endpoint:        endpoint,
			Evidence:        fmt.Sprintf("Token with alg:none returned status %s", statusLabel(resp)),
			Classifications: []scan.ClassificationID{scan.MITRE("T1528"), scan.OWASP("A02:2021")},
			Remediation:     "Explicitly reject 'none' algorithm in JWT verification",
			CVSSEstimate:    9.8,
		})
	}

	accepted := ""
	sent := 0
	for _, secret := range p.WeakSecrets {
		claims := jwt.MapClaims{
			"sub": "admin-id", "role": "admin",
			"exp": now.Add(time.Hour).Unix(), "iat": now.Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			continue
		}
		sent++
		if bearer(ctx, req, "/auth/me", token).StatusCode == http.StatusOK {
			accepted = secret
			break
		}
	}
	details := fmt.Sprintf("Tested %d common secrets, none accepted", sent)
	if accepted != "" {
		details = fmt.Sprintf("Token signed with '%s' was accepted", accepted)
		rec.finding(scan.FindingParams{
			Category:        scan.FindingAuthentication,
			Severity:        scan.SeverityCritical,
			Title:           "JWT signed with weak/guessable secret",
			Description:     fmt.Sprintf("JWT secret is guessable: '%s'", accepted),
			Endpoint:        endpoint,
			Evidence:        fmt.Sprintf("Token signed with '%s' was accepted", accepted),
			Classifications: []scan.ClassificationID{scan.MITRE("T1528"), scan.OWASP("A02:2021")},
			Remediation:     "Use a strong, randomly generated JWT secret (256+ bits)",
			CVSSEstimate:    9.8,
		})
	}
	rec.result(scan.ResultParams{
		TestName:     "JWT weak secret bruteforce",
		Passed:       accepted == "",
		Details:      details,
		RequestsSent: sent,
	})

	expiredClaims := jwt.MapClaims{
		"sub": "user-id", "role": "fan",
		"exp": now.Add(-time.Hour).Unix(), "iat": now.Add(-2 * time.Hour).Unix(),
	}
	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString(randomKey())
	if err != nil {
		panic(fmt.Errorf("sign expired token: %w", err))
	}
	resp = bearer(ctx, req, "/auth/me", expiredToken)
	rec.result(scan.ResultParams{
		TestName:     "Expired JWT rejection",
		Passed:       p.Options.rejected(resp, http.StatusUnauthorized),
		Details:      "Status: " + statusLabel(resp),
		RequestsSent: 1,
		StatusCodes:  statusCodesOf(resp),
	})

	resp = bearer(ctx, req, "/admin/dashboard", p.TamperedToken)
	rec.result(scan.ResultParams{
		TestName:     "Tampered JWT rejection",
		Passed:       p.Options.rejected(resp, http.StatusUnauthorized, http.StatusForbidden),
		Details:      "Status: " + statusLabel(resp),
		RequestsSent: 1,
		StatusCodes:  statusCodesOf(resp),
	})

	return rec.done()
}

func bearer(ctx context.Context, req Requester, path, token string) httpclient.Response {
	return req.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   path,
		Header: map[string]string{"Authorization": "Bearer " + token},
	})
}

func randomKey() []byte {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return key
}
