package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/cv"
	"offshoreCV/internal/metrics"
	"offshoreCV/internal/profile"
)

// publicNotAvailable 是公开接口唯一的失败响应：不区分档案不存在、CV 未发布或内部错误。
const publicNotAvailable = "CV not available"

// SourceLoader 加载一个档案的全部可选数据。
type SourceLoader interface {
	LoadSources(ctx context.Context, profileID string) (profile.Sources, error)
}

// PublicHandler 处理 /cv/:username 与 /cv/:username/:slug。
type PublicHandler struct {
	resolver *cv.Resolver
	sources  SourceLoader
	cache    *cache.PublicCV
	reporter cv.AnomalyReporter
	logger   *slog.Logger
}

func NewPublicHandler(resolver *cv.Resolver, sources SourceLoader, publicCache *cache.PublicCV, reporter cv.AnomalyReporter, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		resolver: resolver,
		sources:  sources,
		cache:    publicCache,
		reporter: reporter,
		logger:   logger,
	}
}

// GetDefault 返回用户的默认公开 CV。
func (h *PublicHandler) GetDefault(c *gin.Context) {
	h.serve(c, c.Param("username"), "")
}

// GetBySlug 返回用户指定 slug 的公开 CV。
func (h *PublicHandler) GetBySlug(c *gin.Context) {
	h.serve(c, c.Param("username"), c.Param("slug"))
}

func (h *PublicHandler) serve(c *gin.Context, username, slug string) {
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("username", username))

	if data, ok, err := h.cache.Get(ctx, username, slug); err != nil {
		logger.Warn("public cv cache read failed", slog.Any("error", err))
	} else if ok {
		metrics.ObservePublicCache(true)
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}
	metrics.ObservePublicCache(false)

	res, err := h.resolver.ResolvePublic(ctx, username, slug)
	if err != nil {
		if !errors.Is(err, cv.ErrProfileNotFound) && !errors.Is(err, cv.ErrCVNotFound) {
			logger.Error("resolve public cv failed", slog.Any("error", err))
		}
		NotFound(c, publicNotAvailable)
		return
	}

	src, err := h.sources.LoadSources(ctx, res.Profile.ID)
	if err != nil {
		logger.Error("load cv sources failed", slog.String("profile_id", res.Profile.ID), slog.Any("error", err))
		NotFound(c, publicNotAvailable)
		return
	}

	rendered := cv.Resolve(res.Record, res.Profile, src)
	for _, a := range rendered.Dangling {
		logger.Warn("cv integrity anomaly",
			slog.String("anomaly", string(a.Kind)),
			slog.String("profile_id", a.ProfileID),
			slog.String("cv_id", a.RecordID),
			slog.String("detail", a.Detail),
		)
		if h.reporter != nil {
			h.reporter.ReportAnomaly(a)
		}
	}

	data, err := json.Marshal(rendered)
	if err != nil {
		logger.Error("encode public cv failed", slog.Any("error", err))
		NotFound(c, publicNotAvailable)
		return
	}
	if err := h.cache.Set(ctx, username, slug, data); err != nil {
		logger.Warn("public cv cache write failed", slog.Any("error", err))
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
