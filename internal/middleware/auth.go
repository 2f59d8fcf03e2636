package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"github.com/gomarket/catalog-service/internal/usecase"
	"go.uber.org/zap"
)

const (
	// UserContextKey is the gin context key holding the authenticated user.
	UserContextKey = "authenticatedUser"

	adminRole = "admin"
)

// Claims defines the JWT claims expected from the token issued by the
// authentication collaborator.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserFromContext returns the authenticated user placed in the context by
// RequireAuth.
func UserFromContext(c *gin.Context) (usecase.AuthenticatedUser, bool) {
	v, ok := c.Get(UserContextKey)
	if !ok {
		return usecase.AuthenticatedUser{}, false
	}
	user, ok := v.(usecase.AuthenticatedUser)
	return user, ok
}

// RequireAuth validates the Bearer token and stores the authenticated user in
// the request context. The core performs no credential verification beyond
// this signature check; identity is owned by the auth collaborator.
func RequireAuth(jwtSecret string, log *logger.Logger) gin.HandlerFunc {
	authLogger := log.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			authLogger.Warn("Missing authorization header", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token is not provided"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			authLogger.Warn("Invalid authorization header format", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token format is invalid, expected 'Bearer <token>'"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			authLogger.Warn("Token validation failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is invalid"})
			return
		}
		if !token.Valid || claims.UserID == "" {
			authLogger.Warn("Token is not valid or has no user id", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is not valid"})
			return
		}

		c.Set(UserContextKey, usecase.AuthenticatedUser{
			ID:   claims.UserID,
			Name: claims.Name,
			Role: claims.Role,
		})
		c.Next()
	}
}

// RequireAdmin gates a route to users whose token carries the admin role.
// It must run after RequireAuth.
func RequireAdmin(log *logger.Logger) gin.HandlerFunc {
	authLogger := log.Named("AdminMiddleware")
	return func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user authentication required"})
			return
		}
		if user.Role != adminRole {
			authLogger.Warn("Non-admin user attempted admin route",
				zap.String("user_id", user.ID),
				zap.String("role", user.Role),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}
