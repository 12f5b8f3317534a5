package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const slogLoggerKey = "slogLogger"

// 探针与抓取接口不记访问日志。
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// SlogLoggerMiddleware 为每个请求派生带 correlation_id 的 logger，
// 结束时按状态码选择日志级别。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		reqLogger := logger.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
		)
		c.Set(slogLoggerKey, reqLogger)

		start := time.Now()
		c.Next()

		if _, quiet := quietPaths[path]; quiet {
			return
		}

		status := c.Writer.Status()
		attrs := []any{
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if profileID := c.GetString(ProfileIDKey); profileID != "" {
			attrs = append(attrs, slog.String("profile_id", profileID))
		}

		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("request completed", attrs...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("request completed", attrs...)
		default:
			reqLogger.Info("request completed", attrs...)
		}
	}
}

// LoggerFromContext 返回上下文中的 slog.Logger。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	if value, ok := c.Get(slogLoggerKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
