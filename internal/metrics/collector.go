// Package metrics exposes Prometheus instrumentation for the concierge.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voicedesk/voicedesk/types"
)

// Collector registers and updates every concierge metric. It takes an
// explicit registerer so tests can use isolated registries instead of the
// process-global one.
type Collector struct {
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	turns           *prometheus.HistogramVec
	toolInvocations *prometheus.CounterVec
	handoffs        *prometheus.CounterVec
	classifyFails   prometheus.Counter
	pendingDropped  *prometheus.CounterVec
	notifyFailures  prometheus.Counter
}

// NewCollector creates and registers the metric set.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicedesk",
			Name:      "sessions_active",
			Help:      "Sessions currently connected.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicedesk",
			Name:      "sessions_total",
			Help:      "Sessions started since boot.",
		}),
		turns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicedesk",
			Name:      "turn_duration_seconds",
			Help:      "Wall time spent handling one caller utterance.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"domain"}),
		toolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicedesk",
			Name:      "tool_invocations_total",
			Help:      "Tool calls by domain, tool and success.",
		}, []string{"domain", "tool", "success"}),
		handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicedesk",
			Name:      "handoffs_total",
			Help:      "Transfers between departments.",
		}, []string{"from", "to"}),
		classifyFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicedesk",
			Name:      "classification_failures_total",
			Help:      "Dispatcher requests that could not be routed.",
		}),
		pendingDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicedesk",
			Name:      "pending_actions_dropped_total",
			Help:      "Unconfirmed previews discarded by transfers.",
		}, []string{"kind"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicedesk",
			Name:      "notification_failures_total",
			Help:      "Confirmation messages that could not be delivered.",
		}),
	}

	reg.MustRegister(
		c.sessionsActive,
		c.sessionsTotal,
		c.turns,
		c.toolInvocations,
		c.handoffs,
		c.classifyFails,
		c.pendingDropped,
		c.notifyFailures,
	)
	return c
}

// SessionStarted marks a new caller connection.
func (c *Collector) SessionStarted() {
	c.sessionsTotal.Inc()
	c.sessionsActive.Inc()
}

// SessionEnded marks a caller disconnect.
func (c *Collector) SessionEnded() {
	c.sessionsActive.Dec()
}

// TurnHandled records one utterance's handling time.
func (c *Collector) TurnHandled(domain types.Domain, d time.Duration) {
	c.turns.WithLabelValues(string(domain)).Observe(d.Seconds())
}

// ToolInvoked records one tool call.
func (c *Collector) ToolInvoked(domain types.Domain, tool string, success bool) {
	c.toolInvocations.WithLabelValues(string(domain), tool, strconv.FormatBool(success)).Inc()
}

// HandoffPerformed records a transfer.
func (c *Collector) HandoffPerformed(from, to types.Domain) {
	c.handoffs.WithLabelValues(string(from), string(to)).Inc()
}

// PendingDropped records a preview discarded by a transfer.
func (c *Collector) PendingDropped(kind types.ActionKind) {
	c.pendingDropped.WithLabelValues(string(kind)).Inc()
}

// ClassificationFailed records an unroutable dispatcher request.
func (c *Collector) ClassificationFailed() {
	c.classifyFails.Inc()
}

// NotifyFailed records an undeliverable confirmation message.
func (c *Collector) NotifyFailed() {
	c.notifyFailures.Inc()
}
