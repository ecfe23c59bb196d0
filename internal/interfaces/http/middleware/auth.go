// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/domain/user"
	"github.com/your-org/farmmarket-backend/internal/pkg/auth"
)

// AuthMiddleware creates JWT authentication middleware. The token carries
// only the principal's ID; anything role-related is resolved from the
// database per request by the role middleware below.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// OptionalAuth resolves the principal when a valid bearer token is present
// and continues anonymously otherwise. Public reads use it so role-aware
// views, like the admin's unfiltered catalog listing, work without gating
// the route.
func OptionalAuth(cfg *config.Config, userService *user.Service) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.Next()
			return
		}

		u, err := userService.FindByID(c.Request.Context(), claims.UserID)
		if err != nil || !u.IsActive {
			c.Next()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("current_user", u)
		c.Next()
	}
}

// RequireUser resolves the authenticated principal from the database and
// stores it in the context. The lookup happens on every gated request, so a
// deactivated account or changed role takes effect immediately rather than at
// token expiry.
func RequireUser(userService *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		u, err := userService.FindByID(c.Request.Context(), userID)
		if err != nil || !u.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("current_user", u)
		c.Next()
	}
}

// RequireRole gates a route to the given roles. Must run after RequireUser.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := GetCurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if u.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		c.Abort()
	}
}

// RequireAdmin gates a route to admins. Must run after RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(user.RoleAdmin)
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetCurrentUser extracts the resolved principal from gin context
func GetCurrentUser(c *gin.Context) (*user.User, bool) {
	v, exists := c.Get("current_user")
	if !exists {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok
}
