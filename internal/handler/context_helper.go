package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/modelhub-io/modelhub-api/internal/middleware"
)

func userIDFromContext(c *gin.Context) (int64, bool) {
	value, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	uid, ok := value.(int64)
	return uid, ok
}

func accessTokenFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(middleware.ContextTokenKey)
	if !exists {
		return "", false
	}
	token, ok := value.(string)
	return token, ok
}

func idParam(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
