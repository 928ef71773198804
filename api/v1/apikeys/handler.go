package apikeys

import (
	"net/http"

	"gatewarden-api/internal/apikey"
	"gatewarden-api/internal/authx"
	"gatewarden-api/internal/logger"
	"gatewarden-api/internal/utils"
	"gatewarden-api/pkg/status"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler handles API key management requests
type Handler struct {
	service *apikey.Service
	logger  *logger.Logger
}

// NewHandler creates a new API key handler
func NewHandler(service *apikey.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
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

// owner resolves the acting principal. Key management is a user/admin
// operation; API-key-authenticated callers are turned away.
func (h *Handler) owner(c *gin.Context) (*authx.User, bool) {
	authCtx, ok := authx.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse("Authentication required", status.StatusUnauthorized))
		return nil, false
	}
	if authCtx.Kind == authx.KindAPIKey {
		c.JSON(http.StatusForbidden, NewErrorResponse("API keys cannot manage API keys", status.StatusForbidden))
		return nil, false
	}
	return authCtx.User, true
}

// HandleIssue handles API key creation
func (h *Handler) HandleIssue(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}

	var req IssueKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.secureLog(err, "Invalid request format", "issueKey")
		c.JSON(http.StatusUnprocessableEntity, NewValidationError(err, status.StatusValidationFailed))
		return
	}

	issued, err := h.service.Issue(c.Request.Context(), user.ID, req.Name, req.Scopes, req.ExpiresInDays)
	if err != nil {
		statusCode := http.StatusInternalServerError
		apiStatusCode := status.StatusInternalServerError

		if err == apikey.ErrInvalidInput {
			statusCode = http.StatusBadRequest
			apiStatusCode = status.StatusBadRequest
		}

		h.secureLog(err, "Failed to issue API key", "issueKey")
		c.JSON(statusCode, NewErrorResponse(err.Error(), apiStatusCode))
		return
	}

	c.JSON(http.StatusCreated, NewIssueKeyResponse(issued, status.StatusKeyIssued))
}

// HandleList handles listing the caller's API keys
func (h *Handler) HandleList(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}

	keys, err := h.service.List(c.Request.Context(), user.ID)
	if err != nil {
		h.secureLog(err, "Failed to list API keys", "listKeys")
		c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error(), status.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, NewListKeysResponse(keys, status.StatusOK))
}

// HandleRevoke handles key revocation; ?permanent=true deletes the record
// instead of flipping its active flag
func (h *Handler) HandleRevoke(c *gin.Context) {
	user, ok := h.owner(c)
	if !ok {
		return
	}

	keyID := c.Param("id")
	permanent := c.Query("permanent") == "true"

	var (
		done    bool
		err     error
		message string
		code    int16
	)

	if permanent {
		done, err = h.service.Delete(c.Request.Context(), keyID, user.ID)
		message, code = "API key deleted", status.StatusKeyDeleted
	} else {
		done, err = h.service.Revoke(c.Request.Context(), keyID, user.ID)
		message, code = "API key revoked", status.StatusKeyRevoked
	}

	if err != nil {
		statusCode := http.StatusInternalServerError
		apiStatusCode := status.StatusInternalServerError

		if err == apikey.ErrInvalidInput {
			statusCode = http.StatusBadRequest
			apiStatusCode = status.StatusBadRequest
		}

		h.secureLog(err, "Failed to revoke API key", "revokeKey")
		c.JSON(statusCode, NewErrorResponse(err.Error(), apiStatusCode))
		return
	}

	if !done {
		// Keys of other owners are indistinguishable from missing ones
		c.JSON(http.StatusNotFound, NewErrorResponse("API key not found", status.StatusNotFound))
		return
	}

	c.JSON(http.StatusOK, NewSuccessResponse(message, code))
}
