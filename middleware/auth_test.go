package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melanoai/event-clocking/utils"
)

func protectedHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	t.Setenv("CLOCKING_JWT_SECRET", "test_secret")

	var called bool
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/clocking/dashboard", nil)

	protectedHandler(t, &called).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, called)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	t.Setenv("CLOCKING_JWT_SECRET", "test_secret")

	var called bool
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/clocking/dashboard", nil)
	request.Header.Set("Authorization", "Token abc")

	protectedHandler(t, &called).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, called)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	t.Setenv("CLOCKING_JWT_SECRET", "test_secret")

	var called bool
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/clocking/dashboard", nil)
	request.Header.Set("Authorization", "Bearer not.a.token")

	protectedHandler(t, &called).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, called)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	t.Setenv("CLOCKING_JWT_SECRET", "test_secret")

	token, err := utils.CreateAccessToken("dashboard")
	require.NoError(t, err)

	var called bool
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/clocking/dashboard", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	protectedHandler(t, &called).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, called)
}

func TestAuthMiddlewareRejectsTokenSignedWithOtherSecret(t *testing.T) {
	t.Setenv("CLOCKING_JWT_SECRET", "first_secret")
	token, err := utils.CreateAccessToken("dashboard")
	require.NoError(t, err)

	t.Setenv("CLOCKING_JWT_SECRET", "second_secret")

	var called bool
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/clocking/dashboard", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	protectedHandler(t, &called).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, called)
}
