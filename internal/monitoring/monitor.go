package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kitchenboard/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor collects kitchen board metrics on its own Prometheus registry
type Monitor struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	alerts      *prometheus.CounterVec
	ordersGauge *prometheus.GaugeVec
	overdue     prometheus.Gauge
	completion  *prometheus.HistogramVec

	mu        sync.RWMutex
	lastTick  time.Time
	startTime time.Time
}

// NewMonitor creates a new monitoring instance with every collector registered
func NewMonitor() *Monitor {
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kds_stage_transitions_total",
				Help: "Successful stage transitions",
			},
			[]string{"from", "to"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kds_rejected_moves_total",
				Help: "Stage moves rejected by the workflow",
			},
			[]string{"reason"},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kds_alerts_total",
				Help: "Alerts emitted by the dispatcher",
			},
			[]string{"kind"},
		),
		ordersGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kds_orders",
				Help: "Orders on the board by stage",
			},
			[]string{"stage"},
		),
		overdue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kds_overdue_orders",
				Help: "Orders past their estimated completion time and not completed",
			},
		),
		completion: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kds_order_completion_seconds",
				Help:    "Time from order receipt to completion",
				Buckets: prometheus.LinearBuckets(0, 300, 12), // 5-minute buckets
			},
			[]string{"platform"},
		),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.transitions,
		m.rejected,
		m.alerts,
		m.ordersGauge,
		m.overdue,
		m.completion,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition is a StageChanged subscriber
func (m *Monitor) ObserveTransition(event models.StageChanged) {
	m.transitions.WithLabelValues(string(event.From), string(event.To)).Inc()
}

// RecordRejected counts a rejected move by reason
func (m *Monitor) RecordRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// RecordCompletion observes how long an order took to reach completed
func (m *Monitor) RecordCompletion(order models.Order, at time.Time) {
	m.completion.WithLabelValues(string(order.Platform)).Observe(at.Sub(order.OrderTime).Seconds())
}

// AlertSink counts alerts; it never fails
func (m *Monitor) AlertSink(ctx context.Context, event models.AlertEvent) error {
	m.alerts.WithLabelValues(string(event.Kind)).Inc()
	return nil
}

// RecordBoard refreshes the per-stage and overdue gauges
func (m *Monitor) RecordBoard(summary map[models.Stage]int, overdue int, at time.Time) {
	for stage, n := range summary {
		m.ordersGauge.WithLabelValues(string(stage)).Set(float64(n))
	}
	m.overdue.Set(float64(overdue))

	m.mu.Lock()
	m.lastTick = at
	m.mu.Unlock()
}

// GetMetrics returns a JSON-friendly snapshot of the headline numbers
func (m *Monitor) GetMetrics() map[string]interface{} {
	metrics := make(map[string]interface{})

	families, err := m.registry.Gather()
	if err == nil {
		for _, mf := range families {
			total := 0.0
			for _, metric := range mf.GetMetric() {
				switch {
				case metric.GetCounter() != nil:
					total += metric.GetCounter().GetValue()
				case metric.GetGauge() != nil:
					total += metric.GetGauge().GetValue()
				case metric.GetHistogram() != nil:
					total += float64(metric.GetHistogram().GetSampleCount())
				}
			}
			metrics[mf.GetName()] = total
		}
	}

	m.mu.RLock()
	if !m.lastTick.IsZero() {
		metrics["last_tick"] = m.lastTick.Format(time.RFC3339)
	}
	m.mu.RUnlock()

	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()
	return metrics
}
