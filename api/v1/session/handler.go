package session

import (
	"errors"
	"net/http"

	"gatewarden-api/internal/authx"
	"gatewarden-api/internal/logger"
	"gatewarden-api/internal/middleware"
	"gatewarden-api/internal/refresh"
	"gatewarden-api/internal/utils"
	"gatewarden-api/pkg/status"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler manages session-related HTTP requests
type Handler struct {
	refresher *refresh.Coordinator
	logger    *logger.Logger
}

// NewHandler creates a new session handler
func NewHandler(refresher *refresh.Coordinator, log *logger.Logger) *Handler {
	return &Handler{
		refresher: refresher,
		logger:    log,
	}
}

// secureLog logs errors without sensitive data that might expose credentials
func (h *Handler) secureLog(err error, message string, route string) {
	requestID := utils.GenerateShortID()
	h.logger.WithFields(logrus.Fields{
		"requestID": requestID,
		"route":     route,
		"errorMsg":  err.Error(),
	}).Error(message)
}

// HandleMe returns the resolved identity of the active request
func (h *Handler) HandleMe(c *gin.Context) {
	authCtx, ok := authx.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse("Authentication required", status.StatusUnauthorized))
		return
	}
	c.JSON(http.StatusOK, NewMeResponse(authCtx, status.StatusOK))
}

// HandleRefresh explicitly rotates the session cookies using the refresh
// cookie
func (h *Handler) HandleRefresh(c *gin.Context) {
	refreshToken, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse("No refresh credential", status.StatusUnauthorized))
		return
	}

	pair, err := h.refresher.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.secureLog(err, "Session refresh failed", "sessionRefresh")

		// A dead refresh credential must not make the client loop
		middleware.ClearSessionCookies(c)

		var rejected *refresh.RejectedError
		if errors.As(err, &rejected) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse("Refresh rejected", status.StatusRefreshRejected))
			return
		}
		c.JSON(http.StatusBadGateway, NewErrorResponse("Identity provider unreachable", status.StatusUpstreamError))
		return
	}

	middleware.SetSessionCookies(c, pair)
	c.JSON(http.StatusOK, NewRefreshResponse(pair, status.StatusTokenRefreshed))
}

// HandleLogout clears the session cookies and revokes the refresh token
// upstream, best effort
func (h *Handler) HandleLogout(c *gin.Context) {
	if refreshToken, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && refreshToken != "" {
		h.refresher.Logout(c.Request.Context(), refreshToken)
	}

	middleware.ClearSessionCookies(c)
	c.JSON(http.StatusOK, NewSuccessResponse("Logged out", status.StatusLogoutSuccess))
}
