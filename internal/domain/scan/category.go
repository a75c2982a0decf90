package scan

import (
	"fmt"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Category tags a Result with the probe group that produced it.
type Category string

const (
	CategoryRecon          Category = "RECON"
	CategoryAuth           Category = "AUTH"
	CategoryJWT            Category = "JWT"
	CategoryInjection      Category = "INJECTION"
	CategoryXSS            Category = "XSS"
	CategoryAuthz          Category = "AUTHZ"
	CategoryRate           Category = "RATE"
	CategoryCORS           Category = "CORS"
	CategoryHeaders        Category = "HEADERS"
	CategoryWebhook        Category = "WEBHOOK"
	CategoryMassAssignment Category = "MASS_ASSIGN"
	CategoryPrivacy        Category = "PRIVACY"
)

var resultCategories = map[Category]struct{}{
	CategoryRecon: {}, CategoryAuth: {}, CategoryJWT: {}, CategoryInjection: {},
	CategoryXSS: {}, CategoryAuthz: {}, CategoryRate: {}, CategoryCORS: {},
	CategoryHeaders: {}, CategoryWebhook: {}, CategoryMassAssignment: {}, CategoryPrivacy: {},
}

// Valid reports whether c is a known probe group category.
func (c Category) Valid() bool {
	_, ok := resultCategories[c]
	return ok
}

// ParseCategory validates a result category token.
func ParseCategory(token string) (Category, error) {
	c := Category(token)
	if !c.Valid() {
		return "", fmt.Errorf("%w: result category %q", sharedErrors.ErrUnknownCategory, token)
	}
	return c, nil
}

// FindingCategory classifies the kind of weakness a Finding describes.
type FindingCategory string

const (
	FindingInformationDisclosure FindingCategory = "Information Disclosure"
	FindingAuthentication        FindingCategory = "Authentication"
	FindingRateLimiting          FindingCategory = "Rate Limiting"
	FindingInjection             FindingCategory = "Injection"
	FindingXSS                   FindingCategory = "XSS"
	FindingAuthorization         FindingCategory = "Authorization"
	FindingCORS                  FindingCategory = "CORS"
	FindingSecurityHeaders       FindingCategory = "Security Headers"
	FindingWebhook               FindingCategory = "Webhook"
	FindingMassAssignment        FindingCategory = "Mass Assignment"
	FindingDataExposure          FindingCategory = "Data Exposure"
)

var findingCategories = map[FindingCategory]struct{}{
	FindingInformationDisclosure: {}, FindingAuthentication: {}, FindingRateLimiting: {},
	FindingInjection: {}, FindingXSS: {}, FindingAuthorization: {}, FindingCORS: {},
	FindingSecurityHeaders: {}, FindingWebhook: {}, FindingMassAssignment: {},
	FindingDataExposure: {},
}

// Valid reports whether c is a known finding category.
func (c FindingCategory) Valid() bool {
	_, ok := findingCategories[c]
	return ok
}

// ParseFindingCategory validates a finding category token.
func ParseFindingCategory(token string) (FindingCategory, error) {
	c := FindingCategory(token)
	if !c.Valid() {
		return "", fmt.Errorf("%w: finding category %q", sharedErrors.ErrUnknownCategory, token)
	}
	return c, nil
}
