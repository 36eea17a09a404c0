package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Role names carried in the access token's roles claim.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

const contextCallerKey = "httpkit.caller"

// Identity is the authenticated caller as seen by handlers.
type Identity interface {
	UserID() uuid.UUID
	// Email is empty when the token has no email claim.
	Email() string
	HasRole(role string) bool
}

type caller struct {
	userID uuid.UUID
	email  string
	roles  []string
}

func (c *caller) UserID() uuid.UUID        { return c.userID }
func (c *caller) Email() string            { return c.email }
func (c *caller) HasRole(role string) bool { return slices.Contains(c.roles, role) }

func setCaller(c *gin.Context, id *caller) {
	c.Set(contextCallerKey, id)
}

// GetIdentity returns the caller stored by AuthRequired, or nil on routes
// that are not authenticated.
func GetIdentity(c *gin.Context) Identity {
	value, ok := c.Get(contextCallerKey)
	if !ok {
		return nil
	}
	id, ok := value.(*caller)
	if !ok || id == nil {
		return nil
	}
	return id
}

// MustGetIdentity aborts with 401 and returns nil when there is no caller.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if id == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id
}
