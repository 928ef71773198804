package session

import (
	"gatewarden-api/internal/authx"
	"gatewarden-api/internal/refresh"
)

// BaseResponse contains fields common to all responses
type BaseResponse struct {
	Code int16 `json:"code"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	BaseResponse
	Detail string `json:"detail"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	BaseResponse
	Detail string `json:"detail"`
}

// MeResponse renders the resolved auth context of the active request
type MeResponse struct {
	BaseResponse
	Type   string      `json:"type"`
	User   *authx.User `json:"user,omitempty"`
	APIKey *APIKeyInfo `json:"apiKey,omitempty"`
}

// APIKeyInfo is the non-secret slice of an API key record shown to its
// bearer
type APIKeyInfo struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// RefreshResponse reports a successful cookie rotation. The tokens
// themselves travel only in cookies.
type RefreshResponse struct {
	BaseResponse
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(message string, code int16) ErrorResponse {
	return ErrorResponse{
		BaseResponse: BaseResponse{Code: code},
		Detail:       message,
	}
}

// NewSuccessResponse creates a new success response
func NewSuccessResponse(message string, code int16) SuccessResponse {
	return SuccessResponse{
		BaseResponse: BaseResponse{Code: code},
		Detail:       message,
	}
}

// NewMeResponse renders the auth context variant
func NewMeResponse(authCtx *authx.Context, code int16) MeResponse {
	resp := MeResponse{
		BaseResponse: BaseResponse{Code: code},
		Type:         string(authCtx.Kind),
	}
	switch authCtx.Kind {
	case authx.KindAPIKey:
		resp.APIKey = &APIKeyInfo{
			ID:     authCtx.APIKey.ID,
			Name:   authCtx.APIKey.Name,
			Scopes: authCtx.APIKey.Scopes,
		}
	case authx.KindAdmin, authx.KindUser:
		resp.User = authCtx.User
	}
	return resp
}

// NewRefreshResponse reports the rotated session's lifetime
func NewRefreshResponse(pair *refresh.TokenPair, code int16) RefreshResponse {
	return RefreshResponse{
		BaseResponse: BaseResponse{Code: code},
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}
}
