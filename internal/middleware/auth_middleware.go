package middleware

import (
	"context"
	"net/http"
	"strings"

	"gatewarden-api/internal/apikey"
	"gatewarden-api/internal/authx"
	"gatewarden-api/internal/identity"
	"gatewarden-api/internal/logger"
	"gatewarden-api/internal/models"
	"gatewarden-api/internal/refresh"
	"gatewarden-api/internal/token"

	"github.com/gin-gonic/gin"
)

// APIKeyVerifier is the slice of the API key service the resolver needs
type APIKeyVerifier interface {
	Verify(ctx context.Context, rawKey string) (*models.APIKey, error)
}

// TokenRefresher is the slice of the refresh coordinator the resolver needs
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*refresh.TokenPair, error)
}

// AuthDeps are the collaborators of the auth resolver. Nil APIKeys or
// Verifier means the auth subsystem was never initialized; requests then
// get 503, not 401, so operators can tell misconfiguration from normal
// unauthenticated traffic.
type AuthDeps struct {
	APIKeys   APIKeyVerifier
	Verifier  token.Verifier
	Refresher TokenRefresher
	Identity  identity.Identity
	Logger    *logger.Logger
}

// RequireAuth resolves exactly one authentication method per request:
// API key, then bearer JWT, then cookie session with a single refresh
// attempt. Once a method is attempted, later methods are never tried,
// even if it fails.
func RequireAuth(deps *AuthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps == nil || deps.APIKeys == nil || deps.Verifier == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication service unavailable"})
			c.Abort()
			return
		}

		bearer := extractBearer(c)

		// 1. API key: self-describing prefix routes it without a lookup
		if bearer != "" && apikey.IsAPIKey(bearer) {
			resolveAPIKey(c, deps, bearer)
			return
		}

		// 2. Bearer JWT
		if bearer != "" {
			resolveBearerToken(c, deps, bearer)
			return
		}

		// 3. Cookie session, with a single refresh attempt
		if resolveCookieSession(c, deps) {
			return
		}

		// 4. Unauthenticated
		rejectUnauthenticated(c, deps)
	}
}

// extractBearer pulls the bearer token off the Authorization header
func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// resolveAPIKey handles the API key path. Fails closed; never falls
// through to JWT verification.
func resolveAPIKey(c *gin.Context, deps *AuthDeps, rawKey string) {
	record, err := deps.APIKeys.Verify(c.Request.Context(), rawKey)
	if err != nil {
		deps.Logger.SecureLog(err, "API key verification error", c.FullPath())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "API key authentication failed"})
		c.Abort()
		return
	}
	if record == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		c.Abort()
		return
	}

	authx.Attach(c, authx.NewAPIKeyContext(record))
	c.Next()
}

// resolveBearerToken handles the header JWT path
func resolveBearerToken(c *gin.Context, deps *AuthDeps, bearer string) {
	user, err := deps.Verifier.Verify(c.Request.Context(), bearer)
	if err != nil {
		kind, _ := token.KindOf(err)
		deps.Logger.WithFields(map[string]interface{}{
			"route":  c.FullPath(),
			"reason": kind.String(),
		}).Debug("JWT verification failed")

		// Key fetch failures are an upstream problem, not a bad credential,
		// but both reject with 401
		if kind == token.KindKeyUnavailable {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "JWT authentication failed"})
		} else {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT token"})
		}
		c.Abort()
		return
	}

	authx.Attach(c, authx.NewUserContext(user))
	c.Next()
}

// resolveCookieSession verifies the access token cookie, refreshing the
// session once when possible. Returns true when the request was resolved
// (or rejected); false falls through to the unauthenticated handling.
func resolveCookieSession(c *gin.Context, deps *AuthDeps) bool {
	accessToken, _ := c.Cookie(AccessTokenCookie)

	if accessToken != "" {
		user, err := deps.Verifier.Verify(c.Request.Context(), accessToken)
		if err == nil {
			authx.Attach(c, authx.NewUserContext(user))
			c.Next()
			return true
		}
	}

	// Access token missing or dead; try one refresh if a credential exists
	refreshToken, _ := c.Cookie(RefreshTokenCookie)
	if refreshToken == "" || deps.Refresher == nil {
		return false
	}

	pair, err := deps.Refresher.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		deps.Logger.SecureLog(err, "Session refresh failed", c.FullPath())
		// Clear the stale cookies so the client does not loop
		ClearSessionCookies(c)
		return false
	}

	SetSessionCookies(c, pair)

	user, err := deps.Verifier.Verify(c.Request.Context(), pair.AccessToken)
	if err != nil {
		deps.Logger.SecureLog(err, "Refreshed access token failed verification", c.FullPath())
		ClearSessionCookies(c)
		return false
	}

	authx.Attach(c, authx.NewUserContext(user))
	c.Next()
	return true
}

// rejectUnauthenticated answers a credential-less request: browsers get a
// redirect to the provider's login page, API clients get the login URL in
// a JSON body
func rejectUnauthenticated(c *gin.Context, deps *AuthDeps) {
	loginURL := deps.Identity.LoginURL(c.Request.URL.RequestURI())

	accept := c.GetHeader("Accept")
	wantsHTML := strings.Contains(accept, "text/html")
	isAPI := strings.Contains(accept, "application/json") || strings.HasPrefix(c.Request.URL.Path, "/api/")

	if wantsHTML && !isAPI {
		c.Redirect(http.StatusFound, loginURL)
		c.Abort()
		return
	}

	c.JSON(http.StatusUnauthorized, gin.H{
		"error":     "Authentication required",
		"login_url": loginURL,
	})
	c.Abort()
}
