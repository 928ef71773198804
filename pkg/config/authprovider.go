package config

import "time"

// AuthProviderConfig holds settings for the remote identity provider this
// instance relies on for token issuance
type AuthProviderConfig struct {
	// BaseURL of the identity provider, e.g. https://auth.example.com
	BaseURL string

	// JWKSPath is the well-known path serving the provider's signing keys
	JWKSPath string

	// RequestTimeout bounds outbound calls to the provider (JWKS fetch,
	// refresh exchange, logout revoke)
	RequestTimeout time.Duration

	// TestSecret enables the symmetric HS256 verification path. Only
	// honored in development; must never be set in production.
	TestSecret string
}

// LoadAuthProviderConfig loads identity provider configuration from
// environment variables
func LoadAuthProviderConfig() *AuthProviderConfig {
	return &AuthProviderConfig{
		BaseURL:        getEnv("AUTH_BASE_URL", "https://auth.example.com"),
		JWKSPath:       getEnv("AUTH_JWKS_PATH", "/.well-known/jwks.json"),
		RequestTimeout: getEnvAsDuration("AUTH_REQUEST_TIMEOUT", 10*time.Second),
		TestSecret:     getEnv("AUTH_TEST_SECRET", ""),
	}
}
