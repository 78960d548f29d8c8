package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one signal instance.
// Every method is safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal      *prometheus.CounterVec // labels: status
	CycleDuration    prometheus.Histogram
	TransitionsTotal *prometheus.CounterVec // labels: action
	SignalsTotal     *prometheus.CounterVec // labels: signal
	PositionSide     prometheus.Gauge       // -1 short, 0 flat, 1 long
	PositionNotional prometheus.Gauge
	LastBarTime      prometheus.Gauge
	BusVersion       prometheus.Gauge

	DispatchTotal    *prometheus.CounterVec // labels: dispatcher, result
	DispatchDuration prometheus.Histogram
}

// New builds the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_signal_cycles_total",
			Help: "Production cycles by result status",
		}, []string{"status"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "argo_signal_cycle_duration_seconds",
			Help:    "Production cycle latency including the feed refresh",
			Buckets: prometheus.DefBuckets,
		}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_signal_transitions_total",
			Help: "Position state machine transitions by action",
		}, []string{"action"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_signal_entry_signals_total",
			Help: "Entry signals seen on processed bars",
		}, []string{"signal"}),
		PositionSide: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argo_signal_position_side",
			Help: "Current side: -1 short, 0 flat, 1 long",
		}),
		PositionNotional: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argo_signal_position_notional",
			Help: "Current signed notional",
		}),
		LastBarTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argo_signal_last_bar_timestamp_seconds",
			Help: "Open time of the newest processed bar",
		}),
		BusVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argo_signal_bus_version",
			Help: "Sequence number of the latest published recommendation",
		}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_signal_dispatch_total",
			Help: "Dispatch attempts by dispatcher and result",
		}, []string{"dispatcher", "result"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "argo_signal_dispatch_duration_seconds",
			Help:    "Dispatch latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.TransitionsTotal,
		m.SignalsTotal,
		m.PositionSide,
		m.PositionNotional,
		m.LastBarTime,
		m.BusVersion,
		m.DispatchTotal,
		m.DispatchDuration,
	)

	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}) //nolint:exhaustruct
}

func (m *Metrics) ObserveCycle(status string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTransition(action string) {
	if m == nil {
		return
	}

	m.TransitionsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveSignal(signal string) {
	if m == nil {
		return
	}

	m.SignalsTotal.WithLabelValues(signal).Inc()
}

func (m *Metrics) SetPosition(side int, notional float64, lastBar time.Time) {
	if m == nil {
		return
	}

	m.PositionSide.Set(float64(side))
	m.PositionNotional.Set(notional)

	if !lastBar.IsZero() {
		m.LastBarTime.Set(float64(lastBar.Unix()))
	}
}

func (m *Metrics) SetBusVersion(version uint64) {
	if m == nil {
		return
	}

	m.BusVersion.Set(float64(version))
}

func (m *Metrics) ObserveDispatch(dispatcher string, result string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.DispatchTotal.WithLabelValues(dispatcher, result).Inc()
	m.DispatchDuration.Observe(elapsed.Seconds())
}
