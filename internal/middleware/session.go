package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/models"
)

// Context keys for storing the session user in gin.Context.
const (
	ContextKeyUser      = "session_user"
	ContextKeyRequestID = "request_id"
)

// UserSource yields the current session user. *store.Store satisfies it.
type UserSource interface {
	User() models.User
}

// Session resolves the session user once per request and stores it in the
// gin context, so a handler sees one consistent user even if another request
// switches the mode midway.
func Session(users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUser, users.User())
		c.Next()
	}
}

// RequireMode aborts with 403 unless the session user is in one of the
// given modes. Must run after Session.
func RequireMode(modes ...models.UserMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		for _, m := range modes {
			if user.Mode == m {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "this action is not available in " + string(user.Mode) + " mode",
			"code":  "mode_forbidden",
		})
	}
}

// GetUser returns the session user stored by Session, or the zero User
// when the middleware did not run.
func GetUser(c *gin.Context) models.User {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return models.User{}
	}
	user, ok := val.(models.User)
	if !ok {
		return models.User{}
	}
	return user
}

func GetUserID(c *gin.Context) string {
	return GetUser(c).ID
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
