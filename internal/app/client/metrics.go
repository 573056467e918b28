package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsMetrics публикует статистику хранилища как метрики Prometheus
type StatsMetrics struct {
	used    prometheus.Gauge
	total   prometheus.Gauge
	records *prometheus.GaugeVec
}

// NewStatsMetrics регистрирует метрики. При nil registerer метрики не публикуются.
func NewStatsMetrics(reg prometheus.Registerer) *StatsMetrics {
	if reg == nil {
		return &StatsMetrics{}
	}
	used := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifelog_storage_used_bytes",
		Help: "Estimated bytes used by records and media.",
	})
	total := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifelog_storage_total_bytes",
		Help: "Storage quota available to the journal.",
	})
	records := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lifelog_records_total",
		Help: "Number of records by content kind.",
	}, []string{"kind"})
	reg.MustRegister(used, total, records)
	return &StatsMetrics{
		used:    used,
		total:   total,
		records: records,
	}
}

// Observe переносит снимок в метрики
func (m *StatsMetrics) Observe(st StorageStats) {
	if m == nil || m.used == nil {
		return
	}
	m.used.Set(float64(st.UsedSpace))
	m.total.Set(float64(st.TotalSpace))
	m.records.WithLabelValues("all").Set(float64(st.TotalRecords))
	m.records.WithLabelValues("text").Set(float64(st.TextRecords))
	m.records.WithLabelValues("audio").Set(float64(st.AudioRecords))
	m.records.WithLabelValues("image").Set(float64(st.ImageRecords))
	m.records.WithLabelValues("video").Set(float64(st.VideoRecords))
}
