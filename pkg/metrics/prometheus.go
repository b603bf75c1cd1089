package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	bondsLoaded  prometheus.Gauge
	curveDate    prometheus.Gauge
	rowsServed   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondpulse_messages_sent_total",
				Help: "Total number of curve points sent to backend",
			},
			[]string{"backend", "tenor"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		refreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondpulse_refresh_total",
				Help: "Total number of upstream refresh runs",
			},
			[]string{"source", "status"},
		),
		bondsLoaded: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bondpulse_bonds_loaded",
				Help: "Number of bonds in the current snapshot",
			},
		),
		curveDate: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bondpulse_curve_date_seconds",
				Help: "Trade date of the active yield curve as a unix timestamp",
			},
		),
		rowsServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondpulse_rows_served_total",
				Help: "Total number of screener rows returned to clients",
			},
			[]string{"endpoint"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bondpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordMessageSent records a curve point sent to a backend.
func (r *Recorder) RecordMessageSent(backend, tenor string) {
	r.messagesSent.WithLabelValues(backend, tenor).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRefresh records the outcome of an upstream refresh run.
func (r *Recorder) RecordRefresh(source, status string) {
	r.refreshes.WithLabelValues(source, status).Inc()
}

// RecordBondsLoaded records the bond count of the current snapshot.
func (r *Recorder) RecordBondsLoaded(n int) {
	r.bondsLoaded.Set(float64(n))
}

// RecordCurveDate records the trade date of the active yield curve.
func (r *Recorder) RecordCurveDate(unixSeconds int64) {
	r.curveDate.Set(float64(unixSeconds))
}

// RecordRowsServed records screener rows returned by an endpoint.
func (r *Recorder) RecordRowsServed(endpoint string, n int) {
	r.rowsServed.WithLabelValues(endpoint).Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
