package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/cv"
	"offshoreCV/internal/store"
)

// InternalHandler 暴露运维用的完整性审计接口，由 X-Internal-Secret 保护。
type InternalHandler struct {
	store       *store.Store
	invalidator cacheInvalidator
	logger      *slog.Logger
}

func NewInternalHandler(st *store.Store, publicCache *cache.PublicCV, logger *slog.Logger) *InternalHandler {
	return &InternalHandler{
		store:       st,
		invalidator: cacheInvalidator{store: st, cache: publicCache},
		logger:      logger,
	}
}

type anomalyView struct {
	Kind      string `json:"kind"`
	ProfileID string `json:"profile_id"`
	CVID      string `json:"cv_id,omitempty"`
	Detail    string `json:"detail"`
}

func toAnomalyViews(anomalies []cv.Anomaly) []anomalyView {
	out := make([]anomalyView, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, anomalyView{Kind: string(a.Kind), ProfileID: a.ProfileID, CVID: a.RecordID, Detail: a.Detail})
	}
	return out
}

// AuditDefaults 列出默认公开 CV 的异常，不做修改。
func (h *InternalHandler) AuditDefaults(c *gin.Context) {
	anomalies, err := h.store.AuditDefaults(c.Request.Context())
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "audit defaults")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toAnomalyViews(anomalies)})
}

// RepairDefaults 修复单个档案的默认标记。
func (h *InternalHandler) RepairDefaults(c *gin.Context) {
	profileID := c.Param("profileID")
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	anomalies, err := h.store.RepairDefaults(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, logger, err, "repair defaults")
		return
	}
	if len(anomalies) > 0 {
		h.invalidator.invalidate(c.Request.Context(), logger, profileID)
	}
	logger.Info("default cvs repaired", slog.Int("anomalies", len(anomalies)))
	c.JSON(http.StatusOK, gin.H{"items": toAnomalyViews(anomalies)})
}
