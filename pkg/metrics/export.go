package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK     = "ok"
	resultFailed = "failed"
)

// Outcome describes one finished export. An empty Code means it succeeded.
type Outcome struct {
	Format  string
	Code    string
	Rows    int
	Elapsed time.Duration
}

// ExportMetrics records price-list document exports.
type ExportMetrics struct {
	duration *prometheus.HistogramVec
	rows     *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewExportMetrics registers the export collectors on reg. A nil reg gives
// a recorder that drops everything.
func NewExportMetrics(reg prometheus.Registerer) *ExportMetrics {
	if reg == nil {
		return &ExportMetrics{}
	}
	m := &ExportMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricelist_export_duration_seconds",
			Help:    "Time spent producing a price list, template lookup included.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"format", "result"}),
		rows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricelist_export_rows",
			Help:    "Product rows written per successful export.",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}, []string{"format"}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricelist_export_success_total",
			Help: "Successful price list exports.",
		}, []string{"format"}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricelist_export_failure_total",
			Help: "Failed price list exports by error code.",
		}, []string{"format", "code"}),
	}
	reg.MustRegister(m.duration, m.rows, m.success, m.failure)
	return m
}

// Record files one export under its format and result.
func (m *ExportMetrics) Record(o Outcome) {
	if m == nil || m.success == nil {
		return
	}
	format := label(strings.ToLower(o.Format))
	if o.Code != "" {
		m.duration.WithLabelValues(format, resultFailed).Observe(o.Elapsed.Seconds())
		m.failure.WithLabelValues(format, o.Code).Inc()
		return
	}
	m.duration.WithLabelValues(format, resultOK).Observe(o.Elapsed.Seconds())
	m.rows.WithLabelValues(format).Observe(float64(o.Rows))
	m.success.WithLabelValues(format).Inc()
}

func label(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
