package authx

import (
	"gatewarden-api/internal/models"

	"github.com/gin-gonic/gin"
)

// Role constants for resolved users
const (
	// RoleDefault is the baseline non-privileged role assigned when a token
	// carries no role claim
	RoleDefault = "authenticated"

	// RoleAdmin marks a project administrator
	RoleAdmin = "admin"
)

// User is the normalized identity produced after successful verification.
// It is the only identity shape exposed to the rest of the system,
// regardless of which authentication method produced it.
type User struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Provider   string   `json:"provider"`
	ProviderID string   `json:"providerId"`
	Role       string   `json:"role"`
	IsActive   bool     `json:"isActive"`
	Scopes     []string `json:"scopes"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Kind identifies which authentication method resolved the request
type Kind string

const (
	KindAPIKey Kind = "api_key"
	KindAdmin  Kind = "admin"
	KindUser   Kind = "user"
)

// Context is the resolved, tagged result of authenticating one request.
// Exactly one variant is populated: APIKey for KindAPIKey, User for
// KindAdmin and KindUser.
type Context struct {
	Kind   Kind
	APIKey *models.APIKey
	User   *User
}

// NewAPIKeyContext builds the api_key variant
func NewAPIKeyContext(key *models.APIKey) *Context {
	return &Context{Kind: KindAPIKey, APIKey: key}
}

// NewUserContext builds the admin or user variant depending on the
// resolved user's role
func NewUserContext(user *User) *Context {
	kind := KindUser
	if user.IsAdmin() {
		kind = KindAdmin
	}
	return &Context{Kind: kind, User: user}
}

// contextKey is the single gin context slot holding the auth result
const contextKey = "authContext"

// Attach stores the auth context on the active request
func Attach(c *gin.Context, authCtx *Context) {
	c.Set(contextKey, authCtx)
}

// FromContext returns the auth context for the active request, if any
func FromContext(c *gin.Context) (*Context, bool) {
	value, exists := c.Get(contextKey)
	if !exists {
		return nil, false
	}
	authCtx, ok := value.(*Context)
	if !ok || authCtx == nil {
		return nil, false
	}
	return authCtx, true
}

// UserFromContext returns the resolved user when the context variant is
// admin or user. API-key requests have no user.
func UserFromContext(c *gin.Context) (*User, bool) {
	authCtx, ok := FromContext(c)
	if !ok || authCtx.User == nil {
		return nil, false
	}
	switch authCtx.Kind {
	case KindAdmin, KindUser:
		return authCtx.User, true
	}
	return nil, false
}
