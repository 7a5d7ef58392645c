// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Role names carried in the access token.
const (
	RoleAdmin     = "admin"
	RoleBDA       = "bda"
	RoleMarketing = "marketing"
)

// Identity represents the authenticated caller.
// Handlers use it instead of reading gin keys directly.
type Identity interface {
	Email() string
	Name() string
	Roles() []string
	HasRole(role string) bool
	IsAdmin() bool
	IsAuthenticated() bool
}

type identity struct {
	email         string
	name          string
	roles         []string
	authenticated bool
}

func (i *identity) Email() string   { return i.email }
func (i *identity) Name() string    { return i.name }
func (i *identity) Roles() []string { return i.roles }

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (i *identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin)
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// NewIdentity builds an authenticated identity. Used by tests and background jobs.
func NewIdentity(email, name string, roles ...string) Identity {
	return &identity{
		email:         strings.ToLower(strings.TrimSpace(email)),
		name:          name,
		roles:         roles,
		authenticated: email != "",
	}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	email := c.GetString(ContextEmailKey)
	if email == "" {
		return &identity{}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	return &identity{
		email:         email,
		name:          c.GetString(ContextNameKey),
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity aborts with 401 and returns nil when the caller is anonymous.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}
