package probe

import (
	"fmt"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Config assembles the probe catalogue.
type Config struct {
	Payloads Payloads
	// APIPrefix is the path prefix of the API base URL, used for finding
	// endpoints and for resolving leak paths.
	APIPrefix string
	Options   Options
}

// Registry is the fixed, ordered set of probe groups for a run.
type Registry struct {
	probes []Probe
}

// NewRegistry builds the stock catalogue in execution order.
func NewRegistry(cfg Config) *Registry {
	pl := cfg.Payloads
	opts := cfg.Options
	prefix := cfg.APIPrefix

	r, err := NewRegistryOf(
		&Recon{LeakPaths: pl.LeakPaths, DisclosureWords: pl.HealthDisclosureWords, APIPrefix: prefix, Options: opts},
		&AuthBruteForce{
			AdminEmail:       pl.AdminEmail,
			Passwords:        pl.CommonPasswords,
			StuffingAccounts: pl.StuffingAccounts,
			StuffingPassword: pl.StuffingPassword,
			APIPrefix:        prefix,
			Options:          opts,
		},
		&JWT{WeakSecrets: pl.WeakJWTSecrets, TamperedToken: pl.TamperedToken, APIPrefix: prefix, Options: opts},
		&Injection{
			SQLPayloads:     pl.SQLPayloads,
			QueryPayloads:   pl.SQLQueryPayloads,
			NoSQLPayloads:   pl.NoSQLPayloads,
			CommandPayloads: pl.CommandPayloads,
			APIPrefix:       prefix,
			Options:         opts,
		},
		&XSS{Payloads: pl.XSSPayloads, StoredSamples: pl.StoredXSSSamples, APIPrefix: prefix, Options: opts},
		&Authorization{Protected: pl.ProtectedEndpoints, ForgedAdmin: pl.ForgedAdmin, Options: opts},
		&RateLimit{
			GlobalBurst:       DefaultGlobalBurst,
			GlobalConcurrency: DefaultGlobalConcurrency,
			AuthAttempts:      DefaultAuthAttempts,
			ConnBurst:         DefaultConnBurst,
			ConnConcurrency:   DefaultConnConcurrency,
			ConnTimeout:       DefaultConnTimeout,
			APIPrefix:         prefix,
		},
		&CORS{HostileOrigins: pl.HostileOrigins, CredentialOrigin: "https://evil.com", Options: opts},
		&SecurityHeaders{Specs: DefaultHeaderSpecs, Options: opts},
		&Webhook{Malformed: pl.WebhookMalformed, Options: opts},
		&MassAssignment{DefaultRole: "fan", APIPrefix: prefix, Options: opts},
		&DataExposure{
			HealthKeys:      pl.SensitiveHealthKeys,
			ProfileUsername: pl.AdminUsername,
			ProfileKeys:     pl.SensitiveProfileKeys,
			InternalMarkers: pl.InternalErrorMarkers,
			APIPrefix:       prefix,
			Options:         opts,
		},
	)
	if err != nil {
		// The stock catalogue has unique names.
		panic(err)
	}
	return r
}

// NewRegistryOf builds a registry from an explicit probe list. Names must be unique.
func NewRegistryOf(probes ...Probe) (*Registry, error) {
	seen := make(map[string]struct{}, len(probes))
	for _, p := range probes {
		if _, dup := seen[p.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", sharedErrors.ErrDuplicateProbe, p.Name())
		}
		seen[p.Name()] = struct{}{}
	}
	return &Registry{probes: append([]Probe(nil), probes...)}, nil
}

// Probes returns the probes in execution order.
func (r *Registry) Probes() []Probe {
	return append([]Probe(nil), r.probes...)
}

// Len returns the number of probe groups.
func (r *Registry) Len() int {
	return len(r.probes)
}

// MaxConcurrency is the widest burst any registered probe dispatches, or 1.
func (r *Registry) MaxConcurrency() int {
	widest := 1
	for _, p := range r.probes {
		if b, ok := p.(Burster); ok {
			widest = max(widest, b.MaxConcurrency())
		}
	}
	return widest
}
