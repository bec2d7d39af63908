package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holidaysplanners/tour-booking-backend/internal/models"
	"github.com/holidaysplanners/tour-booking-backend/pkg/jwt"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// UserContext represents the authenticated caller's resolved identity
type UserContext struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role
func (u UserContext) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

func abortWithError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"message":    message,
		"statusCode": status,
	})
	c.Abort()
}

// AuthMiddleware creates a middleware that resolves the caller's identity
// from a bearer token. Requests without a verifiable credential are rejected
// before any handler runs.
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, http.StatusUnauthorized, "Invalid authorization header format. Expected: Bearer <token>")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortWithError(c, http.StatusUnauthorized, "Token cannot be empty")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired access token")
			return
		}

		c.Set(UserContextKey, UserContext{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})

		c.Next()
	}
}

// RequireAdmin creates a middleware that rejects non-admin callers. It must
// run after AuthMiddleware; a missing identity is treated as unauthenticated.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abortWithError(c, http.StatusUnauthorized, "User context not found. Auth middleware may not be applied.")
			return
		}

		if !userCtx.IsAdmin() {
			abortWithError(c, http.StatusForbidden, "You don't have permission to access this resource")
			return
		}

		c.Next()
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}
