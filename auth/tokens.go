// Package auth issues and validates the access/refresh token pair protecting
// the scrape trigger.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/bookscatalog/go-books-api/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Subject tags distinguish the two token kinds.
const (
	SubjectAccess  = "access"
	SubjectRefresh = "refresh"
)

// ErrInvalidToken covers every rejection reason: bad signature, expiry,
// malformed claims, or wrong subject tag. Callers treat them uniformly.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carries the username next to the registered claim set. The subject
// claim holds the token kind.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenPair is the login/refresh response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenManager signs and validates HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a manager with the given signing secret and
// lifetimes for the two token kinds.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair generates a fresh access+refresh pair bound to username.
func (m *TokenManager) IssuePair(username string) (TokenPair, error) {
	access, err := m.sign(username, SubjectAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(username, SubjectRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (m *TokenManager) sign(username, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate checks signature and expiry and requires the token's subject tag
// to match the expected kind.
func (m *TokenManager) Validate(tokenString, subject string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != subject || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyCredentials checks the login attempt against the configured
// credential. A configured bcrypt hash wins over the plaintext fallback,
// which is compared in constant time.
func VerifyCredentials(cfg config.AuthConfig, username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) != 1 {
		return false
	}
	if cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
}
