package middlewares

import (
	"crypto/subtle"
	"net/http"

	"bitbucket.org/mmdatafocus/inventory_review/appctx"
	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const basicAuthRealm = `Basic realm="inventory-review"`

// BasicAuthMiddleware gates the whole review surface behind one shared
// credential. passwordHash is a bcrypt hash.
func BasicAuthMiddleware(username, passwordHash string) gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			utils.ComparePassword(passwordHash, pass) != nil {
			if ok {
				logger.WithFields(logrus.Fields{
					"field":  "basicAuth",
					"user":   user,
					"client": c.ClientIP(),
				}).Warn("rejected credentials")
			}
			c.Header("WWW-Authenticate", basicAuthRealm)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := appctx.SetUsername(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
