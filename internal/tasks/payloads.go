package tasks

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeStorageCleanup = "storage:cleanup"
	TypeAuditDefaults  = "cv:audit-defaults"
)

// StorageCleanupPayload 列出需要删除的对象键。
type StorageCleanupPayload struct {
	ProfileID     string   `json:"profile_id"`
	ObjectKeys    []string `json:"object_keys"`
	Reason        string   `json:"reason"`
	CorrelationID string   `json:"correlation_id"`
}

// NewStorageCleanupTask 构造对象清理任务；空键会被忽略，全部为空时返回错误。
func NewStorageCleanupTask(profileID string, keys []string, reason, correlationID string) (*asynq.Task, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("no object keys to clean up")
	}
	payload, err := json.Marshal(StorageCleanupPayload{
		ProfileID:     profileID,
		ObjectKeys:    cleaned,
		Reason:        reason,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeStorageCleanup, payload, asynq.MaxRetry(5)), nil
}

// NewAuditDefaultsTask 构造默认公开 CV 的周期审计任务，不携带负载。
func NewAuditDefaultsTask() *asynq.Task {
	return asynq.NewTask(TypeAuditDefaults, nil, asynq.MaxRetry(1), asynq.Unique(time.Hour))
}
