// Package metrics exposes Prometheus collectors for the ingestion pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "observo"

// Dispatch outcomes.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	messagesConsumed   prometheus.Counter
	messagesMalformed  prometheus.Counter
	recordsPersisted   prometheus.Counter
	persistFailures    prometheus.Counter
	duplicatesSkipped  prometheus.Counter
	broadcastDelivered prometheus.Counter
	subscribers        prometheus.Gauge
	alertDispatches    *prometheus.CounterVec
	probeFailures      *prometheus.CounterVec
	offsetCommits      prometheus.Counter
	retentionDeleted   prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		messagesConsumed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Messages fetched from the broker.",
		}),
		messagesMalformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_malformed_total",
			Help:      "Messages whose payload could not be decoded.",
		}),
		recordsPersisted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_persisted_total",
			Help:      "Log records written to storage.",
		}),
		persistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Log records that failed to persist.",
		}),
		duplicatesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Redelivered messages skipped by the idempotency check.",
		}),
		broadcastDelivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Events enqueued to realtime subscribers.",
		}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Connected realtime subscribers.",
		}),
		alertDispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_dispatches_total",
			Help:      "Notification attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		probeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Failed endpoint health probes.",
		}, []string{"endpoint"}),
		offsetCommits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offset_commits_total",
			Help:      "Successful offset commit batches.",
		}),
		retentionDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_total",
			Help:      "Log records removed by retention cleanup.",
		}),
	}
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) MessageConsumed() {
	if m != nil {
		m.messagesConsumed.Inc()
	}
}

func (m *Metrics) MessageMalformed() {
	if m != nil {
		m.messagesMalformed.Inc()
	}
}

func (m *Metrics) RecordPersisted() {
	if m != nil {
		m.recordsPersisted.Inc()
	}
}

func (m *Metrics) PersistFailed() {
	if m != nil {
		m.persistFailures.Inc()
	}
}

func (m *Metrics) DuplicateSkipped() {
	if m != nil {
		m.duplicatesSkipped.Inc()
	}
}

func (m *Metrics) BroadcastDelivered(n int) {
	if m != nil && n > 0 {
		m.broadcastDelivered.Add(float64(n))
	}
}

func (m *Metrics) SetSubscribers(n int) {
	if m != nil {
		m.subscribers.Set(float64(n))
	}
}

func (m *Metrics) AlertDispatched(channel string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSent
	if err != nil {
		outcome = OutcomeFailed
	}
	m.alertDispatches.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) ProbeFailed(endpoint string) {
	if m != nil {
		m.probeFailures.WithLabelValues(endpoint).Inc()
	}
}

func (m *Metrics) OffsetsCommitted() {
	if m != nil {
		m.offsetCommits.Inc()
	}
}

func (m *Metrics) RetentionDeleted(n int64) {
	if m != nil && n > 0 {
		m.retentionDeleted.Add(float64(n))
	}
}
