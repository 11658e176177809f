package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/middleware"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// IssueToken signs an access token for the user with the global configuration
func IssueToken(t *testing.T, user *models.User) string {
	t.Helper()

	cfg := config.GetConfig()
	require.NotNil(t, cfg, "configuration must be set before issuing tokens")
	tokens, err := services.NewTokenService(cfg, nil)
	require.NoError(t, err)
	issued, err := tokens.Issue(user)
	require.NoError(t, err)
	return issued.AccessToken
}

// AuthHeader returns the Authorization header value for the user
func AuthHeader(t *testing.T, user *models.User) string {
	t.Helper()
	return "Bearer " + IssueToken(t, user)
}

// SetMockAuthContext marks the request as authenticated by the given account
func SetMockAuthContext(c *gin.Context, user *models.User) {
	middleware.SetCurrentUser(c, user)
}

// MockAuth is a handler that authenticates every request as the given account.
// A nil user leaves requests anonymous.
func MockAuth(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			SetMockAuthContext(c, user)
		}
		c.Next()
	}
}

// CreateTestContext creates a test Gin context backed by a response recorder
func CreateTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}
