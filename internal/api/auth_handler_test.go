package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offshoreCV/internal/auth"
)

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{"email": "x@example.com", "username": "ab", "password": "correct-horse"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username", decode[map[string]any](t, w)["field"])

	w = app.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{"email": "not-an-email", "password": "correct-horse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.signup(t, "x@example.com", "xavier")
	w = app.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{"email": "X@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "lock@example.com", "locked")

	for i := 0; i < 5; i++ {
		w := app.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "lock@example.com", "password": "wrong-password"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := app.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "lock@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.True(t, app.redis.Exists("lock:login:lock@example.com"))
}

func TestRefreshRotatesToken(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "r@example.com", "romeo")

	w := app.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "r@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var refresh *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == refreshTokenCookieName {
			refresh = ck
		}
	}
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookieName, Value: refresh.Value})
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.NotEmpty(t, decode[tokenResponse](t, first).AccessToken)

	second := send()
	assert.Equal(t, http.StatusUnauthorized, second.Code)
}

func TestPasswordChangeGate(t *testing.T) {
	app := newTestApp(t, nil)
	hash, err := auth.HashPassword("temporary-pass")
	require.NoError(t, err)
	_, err = app.store.CreateAccount(context.Background(), "new@example.com", "newbie", hash, true)
	require.NoError(t, err)

	w := app.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "new@example.com", "password": "temporary-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[tokenResponse](t, w)
	assert.True(t, login.MustChangePassword)

	w = app.do(t, http.MethodGet, "/v1/cvs", login.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/v1/auth/change-password", login.AccessToken, gin.H{
		"current_password": "temporary-pass",
		"new_password":     "brand-new-pass",
		"confirm_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	changed := decode[tokenResponse](t, w)
	assert.False(t, changed.MustChangePassword)

	w = app.do(t, http.MethodGet, "/v1/cvs", changed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/v1/cvs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
