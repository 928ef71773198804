package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatewarden-api/internal/authx"
	"gatewarden-api/internal/identity"
	"gatewarden-api/internal/keycache"
	"gatewarden-api/internal/logger"

	"github.com/golang-jwt/jwt/v4"
)

// Verifier verifies a bearer token and resolves the caller's identity.
// Implementations are selected at construction, never at runtime, so the
// symmetric test path cannot be reached by production misconfiguration.
type Verifier interface {
	Verify(ctx context.Context, tokenString string) (*authx.User, error)
}

// KeySource supplies public key material for signature verification
type KeySource interface {
	SigningKey(ctx context.Context) (keycache.Material, error)
}

// RS256Verifier verifies tokens against the identity provider's published
// RSA keys
type RS256Verifier struct {
	keys     KeySource
	identity identity.Identity
	logger   *logger.Logger
	now      func() time.Time
}

// NewRS256Verifier creates the production token verifier
func NewRS256Verifier(keys KeySource, ident identity.Identity, log *logger.Logger) *RS256Verifier {
	return &RS256Verifier{
		keys:     keys,
		identity: ident,
		logger:   log,
		now:      time.Now,
	}
}

// Verify checks the token's RS256 signature and claims and maps them to a
// resolved user
func (v *RS256Verifier) Verify(ctx context.Context, tokenString string) (*authx.User, error) {
	material, err := v.keys.SigningKey(ctx)
	if err != nil {
		return nil, wrapError(KindKeyUnavailable, err)
	}

	publicKey, err := material.RSAPublicKey()
	if err != nil {
		return nil, wrapError(KindKeyUnavailable, err)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if err := validateClaims(claims, v.identity, v.now()); err != nil {
		return nil, err
	}

	return resolveUser(claims, v.now()), nil
}

// HS256Verifier verifies tokens with a shared symmetric secret. Test and
// development use only; the constructor refuses any other environment.
type HS256Verifier struct {
	secret   []byte
	identity identity.Identity
	logger   *logger.Logger
	now      func() time.Time
}

// NewHS256Verifier creates the symmetric test verifier. It returns an
// error unless the deployment is explicitly marked as a development or
// test environment.
func NewHS256Verifier(secret string, ident identity.Identity, environment string, log *logger.Logger) (*HS256Verifier, error) {
	if environment != "development" && environment != "test" {
		return nil, errors.New("symmetric token verification is restricted to development and test environments")
	}
	if secret == "" {
		return nil, errors.New("symmetric token verification requires a shared secret")
	}
	return &HS256Verifier{
		secret:   []byte(secret),
		identity: ident,
		logger:   log,
		now:      time.Now,
	}, nil
}

// Verify checks the token's HS256 signature and claims and maps them to a
// resolved user
func (v *HS256Verifier) Verify(ctx context.Context, tokenString string) (*authx.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if err := validateClaims(claims, v.identity, v.now()); err != nil {
		return nil, err
	}

	return resolveUser(claims, v.now()), nil
}

// classifyParseError maps golang-jwt parse failures onto our error kinds
func classifyParseError(err error) *VerificationError {
	var validationErr *jwt.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Errors&jwt.ValidationErrorMalformed != 0 {
			return wrapError(KindMalformed, err)
		}
		return wrapError(KindBadSignature, err)
	}
	return wrapError(KindMalformed, err)
}

// validateClaims checks claims in a fixed order, short-circuiting at the
// first failure with a distinct error kind
func validateClaims(claims *Claims, ident identity.Identity, now time.Time) error {
	if !claims.HasAudience(ident.Audience()) {
		return newError(KindInvalidAudience)
	}

	if !ident.IsTrustedIssuer(claims.Issuer) {
		return newError(KindInvalidIssuer)
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		return newError(KindExpired)
	}

	if claims.TokenType != TokenTypeAccess {
		return newError(KindInvalidTokenType)
	}

	if claims.NotBefore != nil && claims.NotBefore.After(now) {
		return newError(KindNotYetValid)
	}

	return nil
}

// resolveUser maps verified claims onto the normalized identity shape,
// synthesizing timestamps for fields the token does not carry
func resolveUser(claims *Claims, now time.Time) *authx.User {
	role := claims.Role
	if role == "" {
		role = authx.RoleDefault
	}

	name := claims.Name
	if name == "" {
		name = claims.Login
	}

	nowUnix := now.Unix()
	return &authx.User{
		ID:         claims.Subject,
		Email:      claims.Email,
		Name:       name,
		Provider:   "github",
		ProviderID: claims.Login,
		Role:       role,
		IsActive:   true,
		Scopes:     claims.Scopes,
		CreatedAt:  nowUnix,
		UpdatedAt:  nowUnix,
	}
}
