package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"offshoreCV/internal/api/middleware"
	"offshoreCV/internal/tasks"
)

// ObjectStorage 是处理器使用的对象存储能力，由 storage.Client 实现。
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	GeneratePresignedURLWithParams(ctx context.Context, objectKey string, duration time.Duration, params map[string]string) (string, error)
}

// TaskEnqueuer 由 asynq.Client 实现。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// enqueueCleanup 投递对象清理任务。投递失败不影响请求结果，只留下孤儿对象。
func enqueueCleanup(c *gin.Context, enqueuer TaskEnqueuer, logger *slog.Logger, profileID, reason string, keys ...string) {
	if enqueuer == nil {
		return
	}
	task, err := tasks.NewStorageCleanupTask(profileID, keys, reason, middleware.GetCorrelationID(c))
	if err != nil {
		return
	}
	if _, err := enqueuer.EnqueueContext(c.Request.Context(), task); err != nil {
		logger.Error("enqueue storage cleanup failed",
			slog.String("profile_id", profileID),
			slog.Any("object_keys", keys),
			slog.Any("error", err),
		)
	}
}
