package middleware

import (
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// contextKey is the type of keys stored in the request context.
type contextKey string

// userIDKey is the key used to store the authenticated user's ID in the Gin context.
const userIDKey = contextKey("userID")

const userCtxKey = contextKey("user")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		if userID, ok := c.Request.Context().Value(userIDKey).(string); ok && userID != "" {
			return userID, true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		return "", false
	}

	return userID, true
}

// GetUserFromContext returns the profile attached by AuthMiddleware.
func GetUserFromContext(c *gin.Context) (*domain.UserProfile, bool) {
	user, ok := c.Request.Context().Value(userCtxKey).(*domain.UserProfile)
	return user, ok && user != nil
}
