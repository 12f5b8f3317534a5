package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"offshoreCV/internal/cv"
)

var (
	anomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "offshorecv",
			Subsystem: "cv",
			Name:      "integrity_anomalies_total",
			Help:      "解析公开 CV 时容忍的数据完整性异常次数。",
		},
		[]string{"kind"},
	)

	publicCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "offshorecv",
			Subsystem: "cv",
			Name:      "public_cache_lookups_total",
			Help:      "公开 CV 缓存查询次数，按命中结果区分。",
		},
		[]string{"result"},
	)
)

// AnomalyReporter 将异常计入 Prometheus。
type AnomalyReporter struct{}

// ReportAnomaly implements cv.AnomalyReporter.
func (AnomalyReporter) ReportAnomaly(a cv.Anomaly) {
	anomaliesTotal.WithLabelValues(string(a.Kind)).Inc()
}

// ObservePublicCache 记录一次缓存查询的结果。
func ObservePublicCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	publicCacheTotal.WithLabelValues(result).Inc()
}
