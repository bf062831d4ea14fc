package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/service"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
	"github.com/modelhub-io/modelhub-api/pkg/response"
)

// Gin context keys set by the JWT middleware.
const (
	ContextUserIDKey = "currentUserID"
	ContextTokenKey  = "currentAccessToken"
)

// JWT protects routes by requiring a valid access token. The caller's
// user id and the raw token are stored on the context for handlers.
func JWT(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.Validate(models.AccessToken, raw)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "access token expired"))
			} else {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid access token"))
			}
			c.Abort()
			return
		}

		uid, err := service.Subject(claims)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid access token"))
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, uid)
		c.Set(ContextTokenKey, raw)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
