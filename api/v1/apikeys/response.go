package apikeys

import (
	"strings"

	"gatewarden-api/internal/apikey"
	"gatewarden-api/internal/models"

	"github.com/go-playground/validator/v10"
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

// KeyResponse is one API key record rendered for the owner. The secret
// hash never appears here.
type KeyResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	DisplayKey string   `json:"displayKey"`
	Scopes     []string `json:"scopes"`
	CreatedAt  int64    `json:"createdAt"`
	LastUsedAt *int64   `json:"lastUsedAt,omitempty"`
	ExpiresAt  *int64   `json:"expiresAt,omitempty"`
	IsActive   bool     `json:"isActive"`
}

// IssueKeyResponse carries the plaintext key exactly once, at creation
type IssueKeyResponse struct {
	BaseResponse
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	DisplayKey string   `json:"displayKey"`
	Key        string   `json:"key"`
	Scopes     []string `json:"scopes"`
	ExpiresAt  *int64   `json:"expiresAt,omitempty"`
}

// ListKeysResponse lists the owner's keys
type ListKeysResponse struct {
	BaseResponse
	Keys []KeyResponse `json:"keys"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	BaseResponse
	Detail string `json:"detail"`
}

// NewValidationError creates a new validation error response
func NewValidationError(err error, code int16) ErrorResponse {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		full := errs[0].Error()
		parts := strings.SplitN(full, "Error:", 2)
		if len(parts) == 2 {
			return NewErrorResponse(strings.TrimSpace(parts[1]), code)
		}
		return NewErrorResponse(full, code)
	}
	return NewErrorResponse("Invalid request format", code)
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

// NewIssueKeyResponse creates the one-time issuance response
func NewIssueKeyResponse(issued *apikey.IssuedKey, code int16) IssueKeyResponse {
	return IssueKeyResponse{
		BaseResponse: BaseResponse{Code: code},
		ID:           issued.ID,
		Name:         issued.Name,
		DisplayKey:   issued.DisplayKey,
		Key:          issued.Plaintext,
		Scopes:       issued.Scopes,
		ExpiresAt:    issued.ExpiresAt,
	}
}

// NewListKeysResponse renders the owner's key records
func NewListKeysResponse(records []models.APIKey, code int16) ListKeysResponse {
	keys := make([]KeyResponse, 0, len(records))
	for _, record := range records {
		keys = append(keys, KeyResponse{
			ID:         record.ID,
			Name:       record.Name,
			DisplayKey: record.DisplayKey,
			Scopes:     record.Scopes,
			CreatedAt:  record.CreatedAt,
			LastUsedAt: record.LastUsedAt,
			ExpiresAt:  record.ExpiresAt,
			IsActive:   record.IsActive,
		})
	}
	return ListKeysResponse{
		BaseResponse: BaseResponse{Code: code},
		Keys:         keys,
	}
}
