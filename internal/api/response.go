package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/cv"
	"offshoreCV/internal/errcode"
	"offshoreCV/internal/profile"
	"offshoreCV/internal/store"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// ErrorWithCode 附带业务错误码，前端据此展示提示。
func ErrorWithCode(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

func validationFailed(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": msg,
		"field": field,
		"code":  errcode.ValidationFailed,
	})
}

// respondError 将领域与存储层错误映射为 HTTP 响应，未知错误记录日志后返回 500。
func respondError(c *gin.Context, logger *slog.Logger, err error, action string) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(c, verr.Field, verr.Message)
	case errors.Is(err, cv.ErrQuotaExceeded):
		ErrorWithCode(c, http.StatusForbidden, errcode.QuotaExceeded, cv.QuotaMessage)
	case errors.Is(err, cv.ErrSlugTaken):
		ErrorWithCode(c, http.StatusConflict, errcode.SlugTaken, "slug already used by another CV")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, cv.ErrCVNotFound), errors.Is(err, cv.ErrProfileNotFound):
		NotFound(c, "not found")
	case errors.Is(err, store.ErrConflict):
		Conflict(c, "already exists")
	default:
		logger.Error(action+" failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}
