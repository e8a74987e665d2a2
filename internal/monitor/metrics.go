// internal/monitor/metrics.go
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command sources.
const (
	SourcePoll     = "poll"
	SourceExternal = "external"
	SourceStartup  = "startup"
)

// Metrics holds the bridge collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	CommandsSent    *prometheus.CounterVec
	LinesReceived   prometheus.Counter
	Responses       *prometheus.CounterVec
	FramerOverflows prometheus.Counter
	PollsDeferred   prometheus.Counter
	GateTimeouts    prometheus.Counter
	StartupFailures *prometheus.CounterVec
	LastValue       prometheus.Gauge
	Online          prometheus.Gauge
}

// New creates and registers the bridge collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		CommandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dmm_commands_sent_total",
			Help: "Commands written to the instrument link.",
		}, []string{"source"}),

		LinesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmm_lines_received_total",
			Help: "Complete response lines received from the instrument.",
		}),

		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dmm_responses_total",
			Help: "Classified responses by kind.",
		}, []string{"kind"}),

		FramerOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmm_framer_overflows_total",
			Help: "Lines discarded for exceeding the maximum line length.",
		}),

		PollsDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmm_polls_deferred_total",
			Help: "Polls postponed because a request was in flight.",
		}),

		GateTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmm_gate_timeouts_total",
			Help: "In-flight requests released without a response.",
		}),

		StartupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dmm_startup_failures_total",
			Help: "Startup stage failures by stage.",
		}, []string{"stage"}),

		LastValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmm_last_value",
			Help: "Last numeric measurement published.",
		}),

		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmm_online",
			Help: "1 while the instrument is online.",
		}),
	}

	m.reg.MustRegister(
		m.CommandsSent,
		m.LinesReceived,
		m.Responses,
		m.FramerOverflows,
		m.PollsDeferred,
		m.GateTimeouts,
		m.StartupFailures,
		m.LastValue,
		m.Online,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ---- nil-safe recorders ----

func (m *Metrics) CommandSent(source string) {
	if m == nil {
		return
	}
	m.CommandsSent.WithLabelValues(source).Inc()
}

func (m *Metrics) LineReceived() {
	if m == nil {
		return
	}
	m.LinesReceived.Inc()
}

func (m *Metrics) Response(kind string) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(kind).Inc()
}

func (m *Metrics) Overflow() {
	if m == nil {
		return
	}
	m.FramerOverflows.Inc()
}

func (m *Metrics) PollDeferred() {
	if m == nil {
		return
	}
	m.PollsDeferred.Inc()
}

func (m *Metrics) GateTimeout() {
	if m == nil {
		return
	}
	m.GateTimeouts.Inc()
}

func (m *Metrics) StartupFailure(stage string) {
	if m == nil {
		return
	}
	m.StartupFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) Value(v float64) {
	if m == nil {
		return
	}
	m.LastValue.Set(v)
}

func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.Online.Set(1)
		return
	}
	m.Online.Set(0)
}
