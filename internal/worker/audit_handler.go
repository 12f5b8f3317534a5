package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"offshoreCV/internal/cv"
)

// DefaultsAuditor 扫描默认公开 CV 的完整性。
type DefaultsAuditor interface {
	AuditDefaults(ctx context.Context) ([]cv.Anomaly, error)
}

// AuditTaskHandler 周期性地报告默认公开 CV 的异常，不做修复；修复走 admin CLI。
type AuditTaskHandler struct {
	auditor  DefaultsAuditor
	reporter cv.AnomalyReporter
	logger   *slog.Logger
}

func NewAuditTaskHandler(auditor DefaultsAuditor, reporter cv.AnomalyReporter, logger *slog.Logger) *AuditTaskHandler {
	return &AuditTaskHandler{auditor: auditor, reporter: reporter, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *AuditTaskHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	anomalies, err := h.auditor.AuditDefaults(ctx)
	if err != nil {
		h.logger.Error("audit default cvs failed", slog.Any("error", err))
		return err
	}
	for _, a := range anomalies {
		h.logger.Warn("cv integrity anomaly",
			slog.String("anomaly", string(a.Kind)),
			slog.String("profile_id", a.ProfileID),
			slog.String("cv_id", a.RecordID),
			slog.String("detail", a.Detail),
		)
		if h.reporter != nil {
			h.reporter.ReportAnomaly(a)
		}
	}
	h.logger.Info("default cv audit completed", slog.Int("anomalies", len(anomalies)))
	return nil
}
