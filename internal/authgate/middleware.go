package authgate

import (
	"net/http"
	"time"

	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	consoleContextKey    = "authgateConsole"
	clientNameContextKey = "authgateClientName"
)

// Guard returns middleware that acquires the caller's bootstrap, applies the
// guard decision, and annotates granted requests with their console. Must run
// after httpkit.SessionRequired.
func Guard(registry *bootstrap.Registry, cfg config.BootstrapConfig) gin.HandlerFunc {
	fallback := cfg.GetGuardFallbackTimeout()
	if fallback <= 0 {
		fallback = 10 * time.Second
	}

	return func(c *gin.Context) {
		id := httpkit.MustGetIdentity(c)
		if id == nil {
			return
		}

		b := registry.Acquire(id.UserID(), id.AccessToken())
		snapshot := b.Snapshot()

		switch Decide(snapshot, time.Now(), fallback) {
		case DecisionWait:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "session is still being established",
			})
			return
		case DecisionLogin:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"from":  c.Request.URL.Path,
			})
			return
		}

		c.Set(consoleContextKey, SelectConsole(snapshot))
		if snapshot.Profile != nil {
			c.Set(clientNameContextKey, snapshot.Profile.DisplayName)
		}
		c.Next()
	}
}

// ConsoleFor returns the console the guard assigned to this request.
func ConsoleFor(c *gin.Context) Console {
	v, ok := c.Get(consoleContextKey)
	if !ok {
		return ConsoleClient
	}
	console, ok := v.(Console)
	if !ok {
		return ConsoleClient
	}
	return console
}

// ClientNameFor returns the client association the guard recorded for this
// request: the caller's profile display name, or empty when no profile row
// resolved. Client-console reads are constrained to this name.
func ClientNameFor(c *gin.Context) string {
	v, ok := c.Get(clientNameContextKey)
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}

// RequireConsole rejects requests whose assigned console does not match.
// A pending forced password change blocks every console except its own, so
// the only reachable surface is the password-change flow.
func RequireConsole(want Console) gin.HandlerFunc {
	return func(c *gin.Context) {
		console := ConsoleFor(c)
		if console == want {
			c.Next()
			return
		}
		if console == ConsolePasswordChange {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "password change required",
				"code":  "password_change_required",
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient permissions",
		})
	}
}
