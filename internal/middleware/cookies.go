package middleware

import (
	"net/http"
	"strings"

	"gatewarden-api/internal/refresh"

	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie holds the short-lived access token
	AccessTokenCookie = "access_token"

	// RefreshTokenCookie holds the rotating refresh credential
	RefreshTokenCookie = "refresh_token"

	// refreshCookieMaxAge is the fixed lifetime of the refresh cookie
	refreshCookieMaxAge = 30 * 24 * 60 * 60 // 30 days
)

// cookieSecure omits the Secure attribute only for localhost deployments,
// to support local development over plain HTTP
func cookieSecure(c *gin.Context) bool {
	return !strings.Contains(c.Request.Host, "localhost")
}

// SetSessionCookies rotates both session cookies from a fresh token pair
func SetSessionCookies(c *gin.Context, pair *refresh.TokenPair) {
	secure := cookieSecure(c)

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.ExpiresIn),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   refreshCookieMaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookies expires both session cookies so a client with a
// dead session does not loop on refresh attempts
func ClearSessionCookies(c *gin.Context) {
	secure := cookieSecure(c)

	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   secure,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
