package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hidroweb/backend/internal/config"
	"github.com/hidroweb/backend/internal/db/models"
)

// Context keys set by the authentication middleware
const (
	ContextGrowerUID   = "grower_uid"
	ContextGrowerEmail = "grower_email"
)

// AuthMiddleware provides JWT authentication middleware for Gin
type AuthMiddleware struct {
	jwtConfig *config.JWTConfig
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(jwtConfig *config.JWTConfig) *AuthMiddleware {
	return &AuthMiddleware{
		jwtConfig: jwtConfig,
	}
}

// RequireAuth middleware ensures that a valid JWT token is present in the request
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := validateToken(parts[1], am.jwtConfig.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ContextGrowerUID, claims.UID)
		c.Set(ContextGrowerEmail, claims.Email)

		c.Next()
	}
}

// GrowerUID returns the authenticated grower's uid from the request
// context
func GrowerUID(c *gin.Context) (string, bool) {
	uid, exists := c.Get(ContextGrowerUID)
	if !exists {
		return "", false
	}
	s, ok := uid.(string)
	return s, ok && s != ""
}

// validateToken validates the JWT token and returns the claims
func validateToken(tokenString string, secretKey string) (*models.Claims, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key is not configured")
	}

	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return []byte(secretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, errors.New("invalid token")
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
