package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's claims on the context.
func (s *HTTPServer) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		claims, err := s.authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), "user_id", claims.UserID))
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.UserClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.UserClaims)
	return claims
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(started))
	}
}
