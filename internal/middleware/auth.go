package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/constants"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
	"github.com/yukikurage/taskflow/internal/services"
)

// RequireAuth accepts a bearer access token or, failing that, the session cookie.
func RequireAuth(tokens *services.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokens == nil {
				apierrors.Unauthorized(c, "Invalid authorization header")
				return
			}
			claims, err := tokens.Verify(strings.TrimSpace(raw))
			if err != nil {
				apierrors.Unauthorized(c, err.Error())
				return
			}
			c.Set(constants.ContextKeyUserID, claims.UserID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := session.Get(constants.ContextKeyUserID).(string)
		if !ok || userID == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}
