package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loreline/backend/internal/auth"
	"github.com/loreline/backend/internal/models"
)

// AuthMiddleware validates the bearer token and stores the caller identity
// in the request context.
func AuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// GetIdentity resolves the identity set by AuthMiddleware. The display name
// is filled in by handlers that need it.
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return models.Identity{}, false
	}

	role, _ := c.Get("role")
	roleStr, _ := role.(string)

	return models.Identity{
		UserID:      userID.(uuid.UUID),
		IsAdmin:     roleStr == models.RoleAdmin,
		IsModerator: roleStr == models.RoleModerator,
	}, true
}
