package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "ordercore"

// OutcomeOK labels a command that returned no error.
const OutcomeOK = "ok"

type CommandMetrics struct {
	Commands  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

// NewCommandMetrics registers the command collectors on reg. Pass
// prometheus.NewRegistry() in tests to keep the default registry clean.
func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Total number of dispatched commands and queries.",
	}, []string{"command", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_ms",
		Help:      "Command latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"command"})

	reg.MustRegister(commands, latency)
	return &CommandMetrics{Commands: commands, LatencyMS: latency}
}

func (m *CommandMetrics) Observe(command, outcome string, elapsed time.Duration) {
	m.Commands.WithLabelValues(command, outcome).Inc()
	m.LatencyMS.WithLabelValues(command).Observe(float64(elapsed.Milliseconds()))
}

type RelayMetrics struct {
	Published *prometheus.CounterVec
	Failures  *prometheus.CounterVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "published_total",
		Help:      "Outbox events published to Kafka.",
	}, []string{"topic"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "publish_failures_total",
		Help:      "Failed outbox publish attempts.",
	}, []string{"topic"})

	reg.MustRegister(published, failures)
	return &RelayMetrics{Published: published, Failures: failures}
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Push replaces the metrics of job on the Pushgateway at url with what
// gatherer collects. Short-lived commands use it since nothing scrapes them.
func Push(ctx context.Context, url, job string, gatherer prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push[%s]: %w", job, err)
	}
	return nil
}
