package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"scribemarket/api/internal/guard"
	"scribemarket/api/internal/models"
)

const identityKey = "identity"

// CurrentIdentity returns the identity an earlier Guard stored on the
// request.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := val.(models.Identity)
	return identity, ok
}

// UnauthorizedPath is shared by every guard: a visitor with a valid session
// but the wrong role lands here, whichever portal they came from.
const UnauthorizedPath = "/unauthorized"

// Guard applies a role guard to a route group. The attempted path rides
// along on login redirects so the visitor returns where they were headed.
func Guard(g guard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, identity := g.Evaluate()

		switch state {
		case guard.StateLoading:
			// Session restore still in flight: placeholder, never a
			// redirect that would lose the destination.
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"view": "loading"})
		case guard.StateUnauthenticated:
			target := g.LoginPath() + "?from=" + url.QueryEscape(c.Request.URL.Path)
			c.Redirect(http.StatusFound, target)
			c.Abort()
		case guard.StateWrongRole:
			c.Redirect(http.StatusFound, UnauthorizedPath)
			c.Abort()
		case guard.StateAuthorized:
			c.Set(identityKey, *identity)
			c.Next()
		}
	}
}
