package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ctxPrincipalID    = "principalID"
	ctxPrincipalEmail = "principalEmail"
)

// requireAuth 快速路徑：只驗 access token，不查儲存層。
func (s *Server) requireAuth(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := r.resolver.Resolve(requestTokenSource(c, r.policy.AccessName))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized", "error_code": errCodeUnauthorized})
			c.Abort()
			return
		}
		c.Set(ctxPrincipalID, ident.ID)
		c.Set(ctxPrincipalEmail, ident.Email)
		c.Next()
	}
}

// requireAuthStrict 敏感寫入路徑：除了驗 token，還要求主體在儲存層仍存在。
func (s *Server) requireAuthStrict(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := r.resolver.ResolveStrict(c.Request.Context(), requestTokenSource(c, r.policy.AccessName))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized", "error_code": errCodeUnauthorized})
			c.Abort()
			return
		}
		c.Set(ctxPrincipalID, p.ID)
		c.Set(ctxPrincipalEmail, p.Email)
		c.Next()
	}
}

func (s *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Printf("[GIN] %v | %3d | %13v | %-7s %s",
			start.Format("2006/01/02 - 15:04:05"),
			status,
			latency,
			c.Request.Method,
			path,
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", c.GetHeader("Origin"))
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
