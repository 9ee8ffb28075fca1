package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// MustGetUserID extracts the user_id set by JWTAuth. On false a 401 has
// already been written and the caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetActor builds the service Actor of the authenticated caller.
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:  userID,
		Email:   c.GetString("email"),
		IsAdmin: c.GetBool("is_admin"),
	}, true
}
