package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/service"
	"github.com/modelhub-io/modelhub-api/pkg/config"
)

func newJWTRouter(t *testing.T, accessTTL time.Duration) (*gin.Engine, *service.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := service.NewTokenService(config.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     accessTTL,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", JWT(tokens), func(c *gin.Context) {
		uid := c.GetInt64(ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"uid": uid})
	})
	return r, tokens
}

func TestJWTAcceptsValidAccessToken(t *testing.T) {
	r, tokens := newJWTRouter(t, time.Hour)

	token, err := tokens.Issue(models.AccessToken, 42)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	r, _ := newJWTRouter(t, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsRefreshTokenOnProtectedRoute(t *testing.T) {
	r, tokens := newJWTRouter(t, time.Hour)

	refresh, err := tokens.Issue(models.RefreshToken, 42)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	r, tokens := newJWTRouter(t, -time.Minute)

	token, err := tokens.Issue(models.AccessToken, 42)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	r, tokens := newJWTRouter(t, time.Hour)

	token, err := tokens.Issue(models.AccessToken, 42)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
