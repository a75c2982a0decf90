package probe

import (
	"strings"

	"github.com/google/uuid"
)

// identity is a throwaway account used by registration probes. Every call to
// newIdentity returns a fresh email and username so repeated registrations in
// one run never collide.
type identity struct {
	Email    string
	Username string
}

const (
	registrationPassword = "Test1234"
	registrationDOB      = "2000-01-01"
)

func newIdentity(prefix string) identity {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return identity{
		Email:    prefix + token + "@test.com",
		Username: prefix + token,
	}
}

// registration builds a /auth/register body for id, merged with extra fields.
func (id identity) registration(extra map[string]any) map[string]any {
	body := map[string]any{
		"email":       id.Email,
		"password":    registrationPassword,
		"username":    id.Username,
		"dateOfBirth": registrationDOB,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}
