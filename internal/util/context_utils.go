package util

import (
	"errors"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// SetUserID stores the authenticated user id in the context.
func SetUserID(c *gin.Context, userID uint) {
	c.Set(userIDKey, userID)
}

// GetUserIDFromContext gets the user ID from the context.
func GetUserIDFromContext(c *gin.Context) (uint, error) {
	val, ok := c.Get(userIDKey)
	if !ok {
		return 0, errors.New("no user ID information")
	}

	userID, ok := val.(uint)
	if !ok {
		return 0, errors.New("user ID information is of the wrong type")
	}

	return userID, nil
}
