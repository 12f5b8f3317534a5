package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offshoreCV/internal/cv"
	"offshoreCV/internal/errcode"
)

func TestPublicCVLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	token, _ := app.signup(t, "jane@example.com", "jane_doe")

	w := app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{"title": "ROV Pilot", "is_published": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[cv.Record](t, w)
	assert.Equal(t, "rov-pilot", created.Slug)
	assert.True(t, created.IsDefaultPublic)

	w = app.do(t, http.MethodGet, "/cv/jane_doe", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[map[string]any](t, w)
	assert.Equal(t, "ROV Pilot", page["title"])
	assert.Equal(t, true, page["show_promo"])

	w = app.do(t, http.MethodGet, "/cv/jane_doe/rov-pilot", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	fields, err := app.redis.HKeys("cv:public:jane_doe")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"\x00default", "rov-pilot"}, fields)

	// 默认 CV 已缓存，字面 slug "_" 仍然找不到。
	w = app.do(t, http.MethodGet, "/cv/jane_doe/_", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"CV not available"}`, w.Body.String())

	// 第二份 CV 超出免费额度。
	w = app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{"title": "Second"})
	require.Equal(t, http.StatusForbidden, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(errcode.QuotaExceeded), body["code"])
	assert.Equal(t, cv.QuotaMessage, body["error"])

	// 取消发布后缓存失效，公开地址不可访问。
	w = app.do(t, http.MethodPut, "/v1/cvs/"+created.ID, token, gin.H{"title": "ROV Pilot", "is_published": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, app.redis.Exists("cv:public:jane_doe"))

	w = app.do(t, http.MethodGet, "/cv/jane_doe", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"CV not available"}`, w.Body.String())
}

func TestPublicCVFailuresAreIndistinguishable(t *testing.T) {
	app := newTestApp(t, nil)
	token, _ := app.signup(t, "sam@example.com", "sam")

	w := app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{"title": "Draft"})
	require.Equal(t, http.StatusCreated, w.Code)

	for _, path := range []string{
		"/cv/nobody",
		"/cv/Sam",
		"/cv/sam",
		"/cv/sam/draft",
		"/cv/sam/missing",
	} {
		w := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"CV not available"}`, w.Body.String(), path)
	}
}

func TestPublicCVRendersOnlySelectedOwnedData(t *testing.T) {
	app := newTestApp(t, nil)
	token, _ := app.signup(t, "ana@example.com", "ana")
	otherToken, _ := app.signup(t, "bob@example.com", "bob")

	roleID := mustSeedRole(t, app, "ROV Pilot Technician")

	w := app.do(t, http.MethodPost, "/v1/profile/roles", token, gin.H{"role_id": roleID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	role := decode[map[string]any](t, w)

	w = app.do(t, http.MethodPost, "/v1/profile/roles", otherToken, gin.H{"role_id": roleID})
	require.Equal(t, http.StatusCreated, w.Code)
	foreign := decode[map[string]any](t, w)

	w = app.do(t, http.MethodPost, "/v1/profile/seatime", token, gin.H{
		"profile_role_id": role["profile_role_id"],
		"vessel_name":     "Skandi Acergy",
		"start_date":      "2023-01-01",
		"end_date":        "2023-01-28",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sea := decode[map[string]any](t, w)
	assert.Equal(t, float64(28), sea["sea_days"])

	w = app.do(t, http.MethodPost, "/v1/cvs", token, gin.H{
		"title":        "Offshore",
		"is_published": true,
		"flags":        gin.H{"include_roles": true, "include_seatime": true},
		"selection": gin.H{
			"selected_role_ids":    []any{role["profile_role_id"], foreign["profile_role_id"]},
			"selected_seatime_ids": []any{sea["id"]},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/cv/ana", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	roles, ok := page["roles"].([]any)
	require.True(t, ok, w.Body.String())
	assert.Len(t, roles, 1)
	seaTime, ok := page["sea_time"].([]any)
	require.True(t, ok)
	assert.Len(t, seaTime, 1)
}
