package identity

import (
	"net/url"
	"strings"
)

// devIssuer is the additional issuer accepted only in development, where
// the identity provider typically runs alongside the backend
const devIssuer = "http://localhost:7130"

// Identity is the deployment's own identity: the externally-visible domain
// this instance answers on, and the identity provider it trusts. Immutable
// for the process lifetime.
type Identity struct {
	domain      string
	authBaseURL string
	development bool
}

// New builds the deployment identity from configuration. The domain may
// carry a port; it is kept for URL construction and stripped for audience
// comparison.
func New(domain, authBaseURL string, development bool) Identity {
	return Identity{
		domain:      domain,
		authBaseURL: strings.TrimRight(authBaseURL, "/"),
		development: development,
	}
}

// Domain returns the configured domain including any port
func (i Identity) Domain() string {
	return i.domain
}

// Audience returns the domain with any port suffix stripped. This is the
// expected value of the token audience claim.
func (i Identity) Audience() string {
	if idx := strings.LastIndex(i.domain, ":"); idx != -1 {
		return i.domain[:idx]
	}
	return i.domain
}

// Scheme returns "http" for localhost deployments and "https" otherwise
func (i Identity) Scheme() string {
	if strings.Contains(i.domain, "localhost") {
		return "http"
	}
	return "https"
}

// Origin returns the outward-facing base URL of this deployment
func (i Identity) Origin() string {
	return i.Scheme() + "://" + i.domain
}

// AuthBaseURL returns the identity provider's base URL with no trailing slash
func (i Identity) AuthBaseURL() string {
	return i.authBaseURL
}

// Issuers returns the allow-list of accepted token issuers: the configured
// identity provider, plus the fixed development issuer when this deployment
// runs in development mode
func (i Identity) Issuers() []string {
	issuers := []string{i.authBaseURL}
	if i.development {
		issuers = append(issuers, devIssuer)
	}
	return issuers
}

// IsTrustedIssuer reports whether the issuer claim is on the allow-list
func (i Identity) IsTrustedIssuer(issuer string) bool {
	for _, trusted := range i.Issuers() {
		if issuer == trusted {
			return true
		}
	}
	return false
}

// LoginURL builds the identity provider's login URL carrying this
// deployment as the origin and the original destination as the return
// parameter
func (i Identity) LoginURL(redirectTo string) string {
	params := url.Values{}
	params.Set("origin", i.Origin())
	params.Set("redirect_to", redirectTo)
	return i.authBaseURL + "/auth/login?" + params.Encode()
}
