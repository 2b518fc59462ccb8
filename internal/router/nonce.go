package router

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"aat-go/internal/handlers"
)

// NonceMiddleware keeps a cryptographic nonce in the session and puts it on
// the Gin context for the CSP header and the inline chart script.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		nonce, ok := session.Get(handlers.CSPNonceKey).(string)
		if !ok || nonce == "" {
			var err error
			nonce, err = newNonce(32)
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			session.Set(handlers.CSPNonceKey, nonce)
			if err := session.Save(); err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		c.Set(handlers.CSPNonceKey, nonce)
		c.Next()
	}
}

// newNonce returns n random bytes in the base64 form CSP expects.
func newNonce(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
