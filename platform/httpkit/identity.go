// Package httpkit provides shared HTTP utilities: response envelopes,
// middleware and the authenticated identity abstraction.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is what handlers see of the authenticated caller. It hides the
// gin context keys the auth middleware populates.
type Identity interface {
	UserID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	roles         []string
	authenticated bool
}

func (i identity) UserID() uuid.UUID { return i.userID }

func (i identity) Roles() []string { return i.roles }

func (i identity) HasRole(role string) bool {
	return slices.Contains(i.roles, role)
}

func (i identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity reads the caller identity from the gin context. Requests that
// never passed the auth middleware yield an unauthenticated identity.
func GetIdentity(c *gin.Context) Identity {
	rawUserID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return identity{}
	}
	userID, ok := rawUserID.(uuid.UUID)
	if !ok {
		return identity{}
	}

	var roles []string
	if rawRoles, ok := c.Get(ContextRolesKey); ok {
		roles, _ = rawRoles.([]string)
	}

	return identity{userID: userID, roles: roles, authenticated: true}
}

// MustGetIdentity is GetIdentity for protected routes: an unauthenticated
// caller aborts the request with 401 and the handler must return on nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
