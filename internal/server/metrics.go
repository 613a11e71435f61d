package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the server's Prometheus instruments, on a private registry
// so tests can build servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	Actions        *prometheus.CounterVec
	HandsCompleted prometheus.Counter
	ChatFiltered   prometheus.Counter
	RateLimited    prometheus.Counter
}

// NewMetrics registers the instruments. activeTables is sampled on scrape.
func NewMetrics(activeTables func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentpoker_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentpoker_actions_total",
			Help: "Accepted betting actions by type.",
		}, []string{"action"}),
		HandsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentpoker_hands_completed_total",
			Help: "Hands resolved across all tables.",
		}),
		ChatFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentpoker_chat_filtered_total",
			Help: "Chat messages rejected by the sanitizer.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentpoker_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.Requests, m.Actions, m.HandsCompleted, m.ChatFiltered, m.RateLimited)
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "agentpoker_active_tables",
		Help: "Live table actors.",
	}, activeTables))
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
