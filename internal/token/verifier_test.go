package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"testing"
	"time"

	"gatewarden-api/internal/authx"
	"gatewarden-api/internal/identity"
	"gatewarden-api/internal/keycache"
	"gatewarden-api/internal/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-shared-secret"

func newTestLogger() *logger.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logger.New(log)
}

func testIdentity() identity.Identity {
	return identity.New("app.example.com", "https://auth.example.com", false)
}

// validClaims returns claims that pass every check against testIdentity
func validClaims(now time.Time) *Claims {
	return &Claims{
		TokenType: TokenTypeAccess,
		Login:     "octocat",
		Email:     "octocat@example.com",
		Name:      "Octo Cat",
		Scopes:    []string{"read", "write"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"app.example.com"},
			Issuer:    "https://auth.example.com",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	}
}

func signHS256(t *testing.T, claims *Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestHS256Verifier(t *testing.T, now time.Time) *HS256Verifier {
	t.Helper()
	v, err := NewHS256Verifier(testSecret, testIdentity(), "test", newTestLogger())
	require.NoError(t, err)
	v.now = func() time.Time { return now }
	return v
}

func TestNewHS256VerifierEnvironmentGuard(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		secret      string
		wantErr     bool
	}{
		{"development allowed", "development", testSecret, false},
		{"test allowed", "test", testSecret, false},
		{"production refused", "production", testSecret, true},
		{"staging refused", "staging", testSecret, true},
		{"empty secret refused", "test", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHS256Verifier(tt.secret, testIdentity(), tt.environment, newTestLogger())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestVerifyValidToken(t *testing.T) {
	now := time.Now()
	v := newTestHS256Verifier(t, now)

	user, err := v.Verify(context.Background(), signHS256(t, validClaims(now)))
	require.NoError(t, err)

	require.Equal(t, "user-1", user.ID)
	require.Equal(t, "octocat@example.com", user.Email)
	require.Equal(t, "Octo Cat", user.Name)
	require.Equal(t, "github", user.Provider)
	require.Equal(t, "octocat", user.ProviderID)
	require.Equal(t, authx.RoleDefault, user.Role)
	require.True(t, user.IsActive)
	require.Equal(t, []string{"read", "write"}, user.Scopes)
}

func TestVerifyDefaults(t *testing.T) {
	now := time.Now()
	v := newTestHS256Verifier(t, now)

	claims := validClaims(now)
	claims.Name = ""
	claims.Role = "admin"

	user, err := v.Verify(context.Background(), signHS256(t, claims))
	require.NoError(t, err)
	require.Equal(t, "octocat", user.Name)
	require.Equal(t, "admin", user.Role)
}

func TestVerifyClaimFailures(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		mutate   func(*Claims)
		wantKind Kind
	}{
		{
			"wrong audience",
			func(c *Claims) { c.Audience = jwt.ClaimStrings{"other.example.com"} },
			KindInvalidAudience,
		},
		{
			"missing audience",
			func(c *Claims) { c.Audience = nil },
			KindInvalidAudience,
		},
		{
			"untrusted issuer",
			func(c *Claims) { c.Issuer = "https://evil.example.com" },
			KindInvalidIssuer,
		},
		{
			"expired",
			func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute)) },
			KindExpired,
		},
		{
			"missing expiry",
			func(c *Claims) { c.ExpiresAt = nil },
			KindExpired,
		},
		{
			"refresh token used as access token",
			func(c *Claims) { c.TokenType = "refresh" },
			KindInvalidTokenType,
		},
		{
			"not yet valid",
			func(c *Claims) { c.NotBefore = jwt.NewNumericDate(now.Add(time.Hour)) },
			KindNotYetValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestHS256Verifier(t, now)

			claims := validClaims(now)
			tt.mutate(claims)

			_, err := v.Verify(context.Background(), signHS256(t, claims))
			require.Error(t, err)

			kind, ok := KindOf(err)
			require.True(t, ok)
			require.Equal(t, tt.wantKind, kind)
		})
	}
}

// Ordering: a token failing several checks at once reports the earliest
// one, so audience beats issuer beats expiry
func TestVerifyClaimFailureOrdering(t *testing.T) {
	now := time.Now()
	v := newTestHS256Verifier(t, now)

	claims := validClaims(now)
	claims.Audience = jwt.ClaimStrings{"other.example.com"}
	claims.Issuer = "https://evil.example.com"
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))

	_, err := v.Verify(context.Background(), signHS256(t, claims))
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindInvalidAudience, kind)
}

func TestVerifyParseFailures(t *testing.T) {
	now := time.Now()
	v := newTestHS256Verifier(t, now)

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "not-a-jwt")
		kind, ok := KindOf(err)
		require.True(t, ok)
		require.Equal(t, KindMalformed, kind)
	})

	t.Run("tampered signature", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(now)).
			SignedString([]byte("a-different-secret"))
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), signed)
		kind, ok := KindOf(err)
		require.True(t, ok)
		require.Equal(t, KindBadSignature, kind)
	})
}

// staticKeySource serves fixed key material without any network fetch
type staticKeySource struct {
	material keycache.Material
	err      error
}

func (s *staticKeySource) SigningKey(ctx context.Context) (keycache.Material, error) {
	return s.material, s.err
}

func TestRS256Verifier(t *testing.T) {
	now := time.Now()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	source := &staticKeySource{material: keycache.Material{PEM: pubPEM}}
	v := NewRS256Verifier(source, testIdentity(), newTestLogger())
	v.now = func() time.Time { return now }

	t.Run("valid token", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims(now)).SignedString(key)
		require.NoError(t, err)

		user, err := v.Verify(context.Background(), signed)
		require.NoError(t, err)
		require.Equal(t, "user-1", user.ID)
	})

	t.Run("symmetric token rejected", func(t *testing.T) {
		signed := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(now))
		tokenString, err := signed.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), tokenString)
		kind, ok := KindOf(err)
		require.True(t, ok)
		require.Equal(t, KindBadSignature, kind)
	})

	t.Run("key fetch failure", func(t *testing.T) {
		broken := NewRS256Verifier(&staticKeySource{err: errors.New("provider down")}, testIdentity(), newTestLogger())
		broken.now = func() time.Time { return now }

		signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims(now)).SignedString(key)
		require.NoError(t, err)

		_, err = broken.Verify(context.Background(), signed)
		kind, ok := KindOf(err)
		require.True(t, ok)
		require.Equal(t, KindKeyUnavailable, kind)
	})
}
