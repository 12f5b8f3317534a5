package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/profile"
	"offshoreCV/internal/store"
)

// ExperienceHandler 管理船上经历与 ROV 项目。
type ExperienceHandler struct {
	store       *store.Store
	invalidator cacheInvalidator
	logger      *slog.Logger
}

func NewExperienceHandler(st *store.Store, publicCache *cache.PublicCV, logger *slog.Logger) *ExperienceHandler {
	return &ExperienceHandler{
		store:       st,
		invalidator: cacheInvalidator{store: st, cache: publicCache},
		logger:      logger,
	}
}

type seaTimeRequest struct {
	ProfileRoleID     string `json:"profile_role_id"`
	VesselName        string `json:"vessel_name" binding:"max=255"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	VoyageDescription string `json:"voyage_description" binding:"max=5000"`
}

func (r seaTimeRequest) toEntry(id string) (profile.SeaTimeEntry, error) {
	start, end, err := parseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return profile.SeaTimeEntry{}, err
	}
	return profile.SeaTimeEntry{
		ID:                id,
		ProfileRoleID:     r.ProfileRoleID,
		VesselName:        r.VesselName,
		StartDate:         start,
		EndDate:           end,
		VoyageDescription: r.VoyageDescription,
	}, nil
}

type rovRequest struct {
	ProfileRoleID string   `json:"profile_role_id"`
	ProjectName   string   `json:"project_name" binding:"max=255"`
	ClientName    string   `json:"client_name" binding:"max=255"`
	Location      string   `json:"location" binding:"max=255"`
	VesselName    string   `json:"vessel_name" binding:"max=255"`
	RovSystem     string   `json:"rov_system" binding:"max=255"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	OffshoreDays  *int     `json:"offshore_days"`
	DiveHours     *float64 `json:"dive_hours"`
	ScopeOfWork   string   `json:"scope_of_work" binding:"max=5000"`
}

func (r rovRequest) toEntry(id string) (profile.RovExperienceEntry, error) {
	start, end, err := parseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return profile.RovExperienceEntry{}, err
	}
	return profile.RovExperienceEntry{
		ID:            id,
		ProfileRoleID: r.ProfileRoleID,
		ProjectName:   r.ProjectName,
		ClientName:    r.ClientName,
		Location:      r.Location,
		VesselName:    r.VesselName,
		RovSystem:     r.RovSystem,
		StartDate:     start,
		EndDate:       end,
		OffshoreDays:  r.OffshoreDays,
		DiveHours:     r.DiveHours,
		ScopeOfWork:   r.ScopeOfWork,
	}, nil
}

// ListSeaTime 返回船上经历。
func (h *ExperienceHandler) ListSeaTime(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	items, err := h.store.ListSeaTime(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "list seatime")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateSeaTime 与 UpdateSeaTime 共享同一请求体，sea_days 由起止日期计算。
func (h *ExperienceHandler) CreateSeaTime(c *gin.Context) { h.saveSeaTime(c, "", http.StatusCreated) }
func (h *ExperienceHandler) UpdateSeaTime(c *gin.Context) {
	h.saveSeaTime(c, c.Param("id"), http.StatusOK)
}

func (h *ExperienceHandler) saveSeaTime(c *gin.Context, id string, status int) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req seaTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	entry, err := req.toEntry(id)
	if err == nil {
		entry, err = h.store.SaveSeaTime(ctx, profileID, entry)
	}
	if err != nil {
		respondError(c, logger, err, "save seatime")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.JSON(status, entry)
}

// DeleteSeaTime 删除船上经历。
func (h *ExperienceHandler) DeleteSeaTime(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))
	if err := h.store.DeleteSeaTime(ctx, profileID, c.Param("id")); err != nil {
		respondError(c, logger, err, "delete seatime")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.Status(http.StatusNoContent)
}

// ListRov 返回 ROV 项目。
func (h *ExperienceHandler) ListRov(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	items, err := h.store.ListRov(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger), err, "list rov")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ExperienceHandler) CreateRov(c *gin.Context) { h.saveRov(c, "", http.StatusCreated) }
func (h *ExperienceHandler) UpdateRov(c *gin.Context) { h.saveRov(c, c.Param("id"), http.StatusOK) }

func (h *ExperienceHandler) saveRov(c *gin.Context, id string, status int) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req rovRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))

	entry, err := req.toEntry(id)
	if err == nil {
		entry, err = h.store.SaveRov(ctx, profileID, entry)
	}
	if err != nil {
		respondError(c, logger, err, "save rov")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.JSON(status, entry)
}

// DeleteRov 删除 ROV 项目。
func (h *ExperienceHandler) DeleteRov(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.String("profile_id", profileID))
	if err := h.store.DeleteRov(ctx, profileID, c.Param("id")); err != nil {
		respondError(c, logger, err, "delete rov")
		return
	}
	h.invalidator.invalidate(ctx, logger, profileID)
	c.Status(http.StatusNoContent)
}
