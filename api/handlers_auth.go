package api

import (
	"net/http"

	"github.com/bookscatalog/go-books-api/auth"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the credential payload for /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token for /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requisição inválida"})
		return
	}

	if !auth.VerifyCredentials(s.cfg.Auth, req.Username, req.Password) {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "nome de usuário ou senha incorretos"})
		return
	}

	pair, err := s.tokens.IssuePair(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao gerar tokens"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requisição inválida"})
		return
	}

	claims, err := s.tokens.Validate(req.RefreshToken, auth.SubjectRefresh)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token inválido ou expirado"})
		return
	}

	pair, err := s.tokens.IssuePair(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao gerar tokens"})
		return
	}
	c.JSON(http.StatusOK, pair)
}
