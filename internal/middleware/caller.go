package middleware

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/store"  // Store contract

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// LoadCaller fetches the authenticated user on each request so role and
// balance are current, not whatever the token carried at login.
func LoadCaller(q store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey) // Get userID from context
		// Check if userID exists in context
		if userID == "" {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := q.GetUser(c.Request.Context(), userID) // Fetch user from store
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived its user
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to load caller")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Set(CallerKey, user) // Store caller in context
		c.Next()               // Proceed to the next handler
	}
}

// Caller returns the user stored by LoadCaller, nil if none
func Caller(c *gin.Context) *domain.User {
	if v, ok := c.Get(CallerKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// RequireRole lets the request through only when the caller holds one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := Caller(c) // Get caller from context
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Check if caller role is allowed
		for _, role := range roles {
			if user.Role == role {
				c.Next() // Role allowed, proceed
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

// AdminOnlyMiddleware restricts a route to admins
func AdminOnlyMiddleware() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
