package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"minihospital/database"
	"minihospital/metrics"
	"minihospital/services"
	"minihospital/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
)

// AuthMiddleware validates JWT tokens and extracts user information
func AuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			c.Abort()
			return
		}

		claims, err := tokens.ValidateJWT(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware validates user roles
func RoleAuthMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range roles {
			if r == userRole {
				c.Next()
				return
			}
		}

		metrics.AccessDenials.WithLabelValues("role").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		c.Abort()
	}
}

func AdminAuthMiddleware() gin.HandlerFunc {
	return RoleAuthMiddleware(database.RoleAdmin)
}

func DoctorAuthMiddleware() gin.HandlerFunc {
	return RoleAuthMiddleware(database.RoleDoctor)
}

func ReceptionistAuthMiddleware() gin.HandlerFunc {
	return RoleAuthMiddleware(database.RoleReceptionist)
}

// CurrentActor returns the principal AuthMiddleware stored on c.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return services.Actor{}, false
	}
	userID, ok := id.(uint)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{
		UserID:   userID,
		Username: c.GetString(ContextUsername),
		Role:     c.GetString(ContextRole),
	}, true
}
