package cv

import (
	"errors"
	"fmt"
)

var (
	// ErrProfileNotFound 用户名没有对应档案。
	ErrProfileNotFound = errors.New("profile not found")
	// ErrCVNotFound 档案存在但没有匹配的已发布 CV。
	ErrCVNotFound = errors.New("cv not found")
	// ErrQuotaExceeded 免费档案已经持有一份 CV。
	ErrQuotaExceeded = errors.New("cv quota exceeded")
	// ErrSlugTaken 同一档案下已有 CV 使用该 slug。
	ErrSlugTaken = errors.New("slug already used by another CV")
)

// QuotaMessage 在返回 ErrQuotaExceeded 时展示给所有者。
const QuotaMessage = "Free plan supports 1 CV. Upgrade to create multiple CVs."

// AnomalyKind 标识一种被容忍的数据完整性异常。
type AnomalyKind string

const (
	AnomalyMultipleDefaults   AnomalyKind = "multiple_default_public"
	AnomalyNoDefault          AnomalyKind = "no_default_public"
	AnomalyDuplicateSlug      AnomalyKind = "duplicate_slug"
	AnomalyDanglingSelection  AnomalyKind = "dangling_selection"
	AnomalyUnpublishedDefault AnomalyKind = "unpublished_default"
)

// Anomaly 从不致命：按确定规则消解后上报。
type Anomaly struct {
	Kind      AnomalyKind
	ProfileID string
	RecordID  string
	Detail    string
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("integrity anomaly %s (profile=%s record=%s): %s", a.Kind, a.ProfileID, a.RecordID, a.Detail)
}

// AnomalyReporter 接收解析或渲染过程中发现的异常。
type AnomalyReporter interface {
	ReportAnomaly(a Anomaly)
}

// AnomalyReporterFunc 将普通函数适配为 AnomalyReporter。
type AnomalyReporterFunc func(Anomaly)

func (f AnomalyReporterFunc) ReportAnomaly(a Anomaly) { f(a) }
