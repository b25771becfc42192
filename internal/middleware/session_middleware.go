package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"decant-store-backend/pkg/logger"
)

const (
	// SessionCookie identifies the browser session owning a cart.
	SessionCookie = "decant_session"

	// SessionKey is the gin context key holding the session id.
	SessionKey = "session_id"

	sessionCookieMaxAge = 60 * 60 * 24 * 7
)

// SessionMiddleware issues an opaque session id cookie on first contact and
// exposes it to handlers. The id keys the session's cart; there is no
// account attached to it.
func SessionMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sessionID, sessionCookieMaxAge, "/", "", secure, true)
		}

		c.Set(SessionKey, sessionID)
		ctx := logger.ContextWithFields(c.Request.Context(), map[string]interface{}{"session_id": sessionID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SessionID extracts the session id set by SessionMiddleware.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionKey)
}
