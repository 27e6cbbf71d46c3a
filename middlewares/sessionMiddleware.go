package middlewares

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/appctx"
	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const SessionCookieName = "review_session"

// WorkerSessionMiddleware gives every client a stable worker session id,
// carried in a signed cookie. A missing, expired or tampered cookie starts a
// new session.
func WorkerSessionMiddleware(secret []byte, lifespan time.Duration) gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		var session string
		if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
			if sid, err := utils.SessionTokenValidate(secret, token); err == nil {
				session = sid
			}
		}

		if session == "" {
			session = uuid.NewString()
			token, err := utils.SessionTokenGenerate(secret, session, lifespan)
			if err != nil {
				config.LogError(logger, "middlewares", "WorkerSessionMiddleware", "Failed to sign session token", nil, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, token, int(lifespan.Seconds()), "/", "", config.SecureSessionCookie(), true)
			logger.WithFields(logrus.Fields{"field": "session", "session": session}).Debug("worker session started")
		}

		ctx := appctx.SetWorkerSession(c.Request.Context(), session)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
