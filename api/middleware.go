package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bookscatalog/go-books-api/auth"
	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// requireAccessToken rejects requests without a valid bearer access token.
// Missing, malformed, expired, and wrong-kind tokens all get the same 401.
func (s *Server) requireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "autenticação obrigatória (Bearer <token>)"})
			return
		}

		claims, err := s.tokens.Validate(strings.TrimPrefix(header, bearerPrefix), auth.SubjectAccess)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "credenciais inválidas ou expiradas"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// corsMiddleware adds permissive CORS headers for the demo deployment.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs each request with latency and status.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		slog.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client", c.ClientIP()),
		)
	}
}
