package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/errcode"
	"offshoreCV/internal/store"
)

// ProfileHandler 管理档案基本信息、岗位资格与查找表。
type ProfileHandler struct {
	store       *store.Store
	invalidator cacheInvalidator
	logger      *slog.Logger
}

func NewProfileHandler(st *store.Store, publicCache *cache.PublicCV, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		store:       st,
		invalidator: cacheInvalidator{store: st, cache: publicCache},
		logger:      logger,
	}
}

// GetProfile 返回当前登录用户的档案。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	p, err := h.store.FindProfile(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "find profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile 更新档案；用户名只能设置一次。
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req store.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	p, err := h.store.UpdateProfile(ctx, profileID, req)
	switch {
	case errors.Is(err, store.ErrConflict):
		ErrorWithCode(c, http.StatusConflict, errcode.UsernameTaken, "username already taken")
		return
	case errors.Is(err, store.ErrUsernameImmutable):
		validationFailed(c, "username", err.Error())
		return
	case err != nil:
		respondError(c, logger, err, "update profile")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.JSON(http.StatusOK, p)
}

// ListLookupRoles 返回可选岗位。
func (h *ProfileHandler) ListLookupRoles(c *gin.Context) {
	roles, err := h.store.ListLookupRoles(c.Request.Context())
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "list lookup roles")
		return
	}
	items := make([]gin.H, 0, len(roles))
	for _, r := range roles {
		items = append(items, gin.H{"id": r.ID, "role_name": r.RoleName, "category": r.Category})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListLookupCerts 返回可选证书。
func (h *ProfileHandler) ListLookupCerts(c *gin.Context) {
	certs, err := h.store.ListLookupCerts(c.Request.Context())
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "list lookup certs")
		return
	}
	items := make([]gin.H, 0, len(certs))
	for _, r := range certs {
		items = append(items, gin.H{"id": r.ID, "cert_name": r.CertName, "category": r.Category})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListRoles 返回档案已持有的岗位资格。
func (h *ProfileHandler) ListRoles(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	src, err := h.store.LoadSources(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "list roles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": src.Roles})
}

type addRoleRequest struct {
	RoleID string `json:"role_id" binding:"required"`
}

// AddRole 添加岗位资格。
func (h *ProfileHandler) AddRole(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req addRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	role, err := h.store.AddRoleAssignment(ctx, profileID, req.RoleID)
	if err != nil {
		respondError(c, logger, err, "add role")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.JSON(http.StatusCreated, role)
}

// DeleteRole 删除岗位资格。
func (h *ProfileHandler) DeleteRole(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	if err := h.store.DeleteRoleAssignment(ctx, profileID, c.Param("id")); err != nil {
		respondError(c, logger, err, "delete role")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.Status(http.StatusNoContent)
}
