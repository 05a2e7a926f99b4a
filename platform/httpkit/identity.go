// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access user information without depending on Gin.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Email returns the user's email from the session token.
	Email() string
	// AccessToken returns the raw session access token for forwarding.
	AccessToken() string
	// RequiresPasswordChange reports the password-change metadata flag.
	RequiresPasswordChange() bool
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	userID         uuid.UUID
	email          string
	accessToken    string
	passwordChange bool
	authenticated  bool
}

func (i *identity) UserID() uuid.UUID            { return i.userID }
func (i *identity) Email() string                { return i.email }
func (i *identity) AccessToken() string          { return i.accessToken }
func (i *identity) RequiresPasswordChange() bool { return i.passwordChange }
func (i *identity) IsAuthenticated() bool        { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	email := c.GetString(ContextEmailKey)
	token := c.GetString(ContextAccessTokenKey)
	passwordChange := c.GetBool(ContextPasswordChangeKey)

	return &identity{
		userID:         uid,
		email:          email,
		accessToken:    token,
		passwordChange: passwordChange,
		authenticated:  true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
