package handler

import (
	"github.com/gin-gonic/gin"

	"istc-sms/backend/pkg/response"
)

// MustGetUserID reads user_id set by JWTAuth. On failure it writes a 401
// and returns false; callers return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole reads role set by JWTAuth.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// GetTeacherID reads teacher_id; empty for non-teaching staff.
func GetTeacherID(c *gin.Context) string {
	s, _ := c.Get("teacher_id")
	id, _ := s.(string)
	return id
}

// actorID identifies the caller in audit columns: the teacher id when the
// token carries one, the user id otherwise.
func actorID(c *gin.Context) (string, bool) {
	if id := GetTeacherID(c); id != "" {
		return id, true
	}
	return MustGetUserID(c)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}
