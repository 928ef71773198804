package apikeys

// IssueKeyRequest is the payload for creating a new API key
type IssueKeyRequest struct {
	Name          string   `json:"name" binding:"required,min=1,max=100"`
	Scopes        []string `json:"scopes" binding:"omitempty,dive,min=1,max=64"`
	ExpiresInDays *int     `json:"expiresInDays" binding:"omitempty,min=1,max=3650"`
}
