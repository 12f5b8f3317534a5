package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"offshoreCV/internal/storage"
	"offshoreCV/internal/tasks"
)

// ObjectDeleter 是清理任务需要的最小存储能力。
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// CleanupTaskHandler 删除被替换或删除的头像与证书文档。
type CleanupTaskHandler struct {
	storage ObjectDeleter
	logger  *slog.Logger
}

// NewCleanupTaskHandler 创建任务处理器。
func NewCleanupTaskHandler(storage ObjectDeleter, logger *slog.Logger) *CleanupTaskHandler {
	return &CleanupTaskHandler{storage: storage, logger: logger}
}

// ProcessTask 实现 asynq.Handler。对象不存在视为成功，因此重试是安全的。
func (h *CleanupTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.StorageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal cleanup payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("profile_id", payload.ProfileID),
		slog.String("reason", payload.Reason),
	)

	var errs []error
	deleted := 0
	for _, key := range payload.ObjectKeys {
		if payload.ProfileID != "" && !storage.OwnsKey(payload.ProfileID, key) {
			log.Warn("skip object outside profile prefix", slog.String("object_key", key))
			continue
		}
		if err := h.storage.DeleteObject(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}

	if err := errors.Join(errs...); err != nil {
		level := slog.LevelWarn
		if isFinalAsynqAttempt(ctx) {
			level = slog.LevelError
		}
		log.Log(ctx, level, "storage cleanup incomplete",
			slog.Int("deleted", deleted),
			slog.Int("failed", len(errs)),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("storage cleanup completed", slog.Int("deleted", deleted))
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
