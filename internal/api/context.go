package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/api/middleware"
)

// profileIDFromContext 读取认证中间件写入的档案 ID。
func profileIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(middleware.ProfileIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func requestLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil && logger != slog.Default() {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
