package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/cv"
	"offshoreCV/internal/store"
)

// CVHandler 提供 CV Builder 的增删改查与预览。
type CVHandler struct {
	store       *store.Store
	invalidator cacheInvalidator
	logger      *slog.Logger
}

// NewCVHandler 构造 CV 处理器。
func NewCVHandler(st *store.Store, publicCache *cache.PublicCV, logger *slog.Logger) *CVHandler {
	return &CVHandler{
		store:       st,
		invalidator: cacheInvalidator{store: st, cache: publicCache},
		logger:      logger,
	}
}

// ListCVs 返回所有者的全部 CV，包括未发布的。
func (h *CVHandler) ListCVs(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	records, err := h.store.ListCVs(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "list cvs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

// GetCV 返回单个 CV 记录。
func (h *CVHandler) GetCV(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	rec, err := h.store.GetCV(c.Request.Context(), profileID, c.Param("id"))
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "get cv")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// CreateCV 新建 CV；免费档案超过一份时返回 403。
func (h *CVHandler) CreateCV(c *gin.Context) {
	var draft cv.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		BadRequest(c, err.Error())
		return
	}
	draft.ID = ""
	h.save(c, draft, http.StatusCreated)
}

// UpdateCV 覆盖已有 CV 的全部内容。
func (h *CVHandler) UpdateCV(c *gin.Context) {
	var draft cv.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		BadRequest(c, err.Error())
		return
	}
	draft.ID = c.Param("id")
	h.save(c, draft, http.StatusOK)
}

func (h *CVHandler) save(c *gin.Context, draft cv.Draft, status int) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	rec, err := h.store.SaveCV(ctx, profileID, draft)
	if err != nil {
		respondError(c, logger, err, "save cv")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)

	logger.Info("cv saved",
		slog.String("cv_id", rec.ID),
		slog.String("slug", rec.Slug),
		slog.Bool("published", rec.IsPublished),
		slog.Bool("default_public", rec.IsDefaultPublic),
	)
	c.JSON(status, rec)
}

// DeleteCV 删除 CV。其余 CV 的默认标记保持不变。
func (h *CVHandler) DeleteCV(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	if err := h.store.DeleteCV(ctx, profileID, c.Param("id")); err != nil {
		respondError(c, logger, err, "delete cv")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.Status(http.StatusNoContent)
}

// PreviewCV 用所有者当前数据渲染 CV，不要求已发布。
func (h *CVHandler) PreviewCV(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger)

	rec, err := h.store.GetCV(ctx, profileID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "get cv")
		return
	}
	owner, err := h.store.FindProfile(ctx, profileID)
	if err != nil {
		respondError(c, logger, err, "find profile")
		return
	}
	src, err := h.store.LoadSources(ctx, profileID)
	if err != nil {
		respondError(c, logger, err, "load cv sources")
		return
	}
	c.JSON(http.StatusOK, cv.Resolve(rec, owner, src))
}
