// Package telemetry exposes simulation progress as Prometheus metrics and
// serves them over a small HTTP monitor.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sawpanic/optionrun/internal/domain"
)

// Metrics implements engine.Observer, counting simulation activity on a
// private Prometheus registry
type Metrics struct {
	registry *prometheus.Registry

	daysProcessed prometheus.Counter
	signals       *prometheus.CounterVec
	opened        *prometheus.CounterVec
	closed        *prometheus.CounterVec
	equity        prometheus.Gauge
	openPositions prometheus.Gauge
}

// NewMetrics creates and registers the metric set
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		daysProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optionrun_days_processed_total",
			Help: "Simulated trading days completed",
		}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionrun_signals_total",
			Help: "Valid signals generated, by strategy",
		}, []string{"strategy"}),
		opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionrun_positions_opened_total",
			Help: "Positions opened, by strategy",
		}, []string{"strategy"}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionrun_positions_closed_total",
			Help: "Positions closed, by exit reason",
		}, []string{"reason"}),
		equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optionrun_equity_dollars",
			Help: "Portfolio equity as of the last simulated day",
		}),
		openPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optionrun_open_positions",
			Help: "Open positions as of the last simulated day",
		}),
	}
	m.registry.MustRegister(m.daysProcessed, m.signals, m.opened, m.closed, m.equity, m.openPositions)
	return m
}

// OnDay records the day's closing equity and open position count
func (m *Metrics) OnDay(date time.Time, equity float64, openPositions int) {
	m.daysProcessed.Inc()
	m.equity.Set(equity)
	m.openPositions.Set(float64(openPositions))
}

// OnSignals counts the day's valid signals for one strategy
func (m *Metrics) OnSignals(strategy string, count int) {
	if count > 0 {
		m.signals.WithLabelValues(strategy).Add(float64(count))
	}
}

// OnOpen counts a position entry
func (m *Metrics) OnOpen(pos *domain.Position) {
	m.opened.WithLabelValues(pos.Strategy).Inc()
}

// OnClose counts a position exit by reason
func (m *Metrics) OnClose(pos *domain.Position) {
	m.closed.WithLabelValues(pos.ExitReason.String()).Inc()
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
