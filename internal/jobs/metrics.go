// Package jobmetrics instruments the asynq task handlers.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/odyssey-erp/odyssey-po/internal/receiving"
)

// Metrics holds the worker collectors.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	lines       *prometheus.GaugeVec
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers against registerer. A nil registerer shares one
// instance on the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = build(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return build(registerer)
}

// Tracker times one task run.
type Tracker struct {
	metrics *Metrics
	task    string
	start   time.Time
}

// Track starts timing task.
func (m *Metrics) Track(task string) *Tracker {
	return &Tracker{metrics: m, task: task, start: time.Now()}
}

// End records the run outcome and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.task == "" {
		return err
	}
	m := t.metrics
	outcome := "success"
	if err != nil {
		outcome = "failure"
	} else {
		m.lastSuccess.WithLabelValues(t.task).Set(float64(m.now().Unix()))
	}
	m.runs.WithLabelValues(t.task, outcome).Inc()
	m.duration.WithLabelValues(t.task).Observe(time.Since(t.start).Seconds())
	return err
}

// SetLineStates publishes the counters of the latest dashboard snapshot.
func (m *Metrics) SetLineStates(c receiving.Counters) {
	if m == nil {
		return
	}
	m.lines.WithLabelValues("total").Set(float64(c.Lines))
	m.lines.WithLabelValues("not_delivered").Set(float64(c.NotDelivered))
	m.lines.WithLabelValues("partial").Set(float64(c.Partial))
	m.lines.WithLabelValues("complete").Set(float64(c.Complete))
	m.lines.WithLabelValues("delayed").Set(float64(c.Delayed))
}

func build(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_jobs_total",
			Help: "Task runs by task type and outcome.",
		}, []string{"task", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "odyssey_job_duration_seconds",
			Help:    "Task run duration.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"task"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "odyssey_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"task"}),
		lines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "odyssey_receiving_lines",
			Help: "Purchase order lines per delivery state in the latest reconciliation.",
		}, []string{"state"}),
		now: time.Now,
	}
	registerer.MustRegister(m.runs, m.duration, m.lastSuccess, m.lines)
	return m
}
