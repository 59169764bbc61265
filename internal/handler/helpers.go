package handler

import (
	"net/http"

	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// currentUserID reads the authenticated user's ID set by the auth middleware.
// When missing, it writes a 401 and returns false.
func currentUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid User ID format"))
		return "", false
	}
	return id, true
}
