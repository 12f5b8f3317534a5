package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offshoreCV/internal/cv"
	"offshoreCV/internal/errcode"
)

func TestCVOwnershipAndPreview(t *testing.T) {
	app := newTestApp(t, nil)
	token, _ := app.signup(t, "owner@example.com", "owner")
	otherToken, _ := app.signup(t, "other@example.com", "other")

	w := app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{
		"title":    "Private draft",
		"freeform": gin.H{"key_skills": "Piloting\n\nTooling\n"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[cv.Record](t, w)
	assert.False(t, rec.IsPublished)
	assert.False(t, rec.IsDefaultPublic)

	w = app.do(t, http.MethodGet, "/v1/cvs/"+rec.ID+"/preview", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[map[string]any](t, w)
	assert.Equal(t, "Private draft", preview["title"])
	assert.Equal(t, []any{"Piloting", "Tooling"}, preview["key_skills"])

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = app.do(t, method, "/v1/cvs/"+rec.ID, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
	w = app.do(t, http.MethodPut, "/v1/cvs/"+rec.ID, otherToken, gin.H{"title": "Hijack"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodGet, "/v1/cvs", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string][]cv.Record](t, w)
	require.Len(t, list["items"], 1)
	assert.Equal(t, "Private draft", list["items"][0].Title)

	w = app.do(t, http.MethodDelete, "/v1/cvs/"+rec.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = app.do(t, http.MethodGet, "/v1/cvs/"+rec.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCVSlugConflictForPaidProfile(t *testing.T) {
	app := newTestApp(t, nil)
	token, profileID := app.signup(t, "paid@example.com", "paid_user")
	require.NoError(t, app.store.SetSubscription(context.Background(), profileID, "pro", true))

	w := app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{"title": "One", "slug": "offshore", "is_published": true})
	require.Equal(t, http.StatusCreated, w.Code)
	first := decode[cv.Record](t, w)

	w = app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{"title": "Two", "slug": "Offshore", "is_published": true})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(errcode.SlugTaken), decode[map[string]any](t, w)["code"])

	w = app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{"title": "Two", "slug": "inspection", "is_published": true, "is_default_public": true})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[cv.Record](t, w)
	assert.True(t, second.IsDefaultPublic)

	w = app.do(t, http.MethodGet, "/v1/cvs/"+first.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[cv.Record](t, w).IsDefaultPublic)

	w = app.do(t, http.MethodGet, "/cv/paid_user", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Two", decode[map[string]any](t, w)["title"])
	assert.Equal(t, false, decode[map[string]any](t, w)["show_promo"])
}

func TestProfileUsernameRules(t *testing.T) {
	app := newTestApp(t, nil)
	token, _ := app.signup(t, "e@example.com", "echo")

	w := app.do(t, http.MethodPut, "/v1/profile", token, gin.H{"full_name": "Echo One", "username": "echo_two"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username", decode[map[string]any](t, w)["field"])

	w = app.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{"email": "f@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = app.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "f@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	fresh := decode[tokenResponse](t, w).AccessToken

	w = app.do(t, http.MethodPut, "/v1/profile", fresh, gin.H{"username": "Echo"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(errcode.UsernameTaken), decode[map[string]any](t, w)["code"])

	w = app.do(t, http.MethodPut, "/v1/profile", fresh, gin.H{"username": "Foxtrot", "full_name": "Fox"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[map[string]any](t, w)
	assert.Equal(t, "foxtrot", p["username"])
	assert.Equal(t, "Fox", p["full_name"])
}

func TestInternalAuditRequiresSecret(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(t, http.MethodGet, "/v1/internal/audit/defaults", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/internal/audit/defaults", nil)
	req.Header.Set("X-Internal-Secret", "s3cret")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestPreviewWithInjectedProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := newTestStore(t)
	acct, err := st.CreateAccount(context.Background(), "g@example.com", "golf", "hash", false)
	require.NoError(t, err)
	rec, err := st.SaveCV(context.Background(), acct.ID, cv.Draft{Title: "Golf"})
	require.NoError(t, err)

	h := NewCVHandler(st, nil, discardLogger())
	router := gin.New()
	router.GET("/cvs/:id/preview", withProfile(acct.ID), h.PreviewCV)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cvs/"+rec.ID+"/preview", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "golf", decode[map[string]any](t, w)["username"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cvs/missing/preview", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
