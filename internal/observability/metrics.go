package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridged",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bridged",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bridged",
			Subsystem: "ws",
			Name:      "connections_active",
			Help:      "Currently connected WebSocket clients.",
		},
	)
	wsFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridged",
			Subsystem: "ws",
			Name:      "frames_total",
			Help:      "WebSocket frames by direction and type.",
		},
		[]string{"direction", "type"},
	)
	broadcastFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bridged",
			Subsystem: "hub",
			Name:      "broadcast_send_failures_total",
			Help:      "Subscriber sends dropped due to transport failure.",
		},
	)
	actionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridged",
			Subsystem: "actions",
			Name:      "executions_total",
			Help:      "Action executions by outcome.",
		},
		[]string{"outcome"},
	)
	actionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bridged",
			Subsystem: "actions",
			Name:      "execution_duration_seconds",
			Help:      "Action execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	inboxSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridged",
			Subsystem: "inbox",
			Name:      "sync_cycles_total",
			Help:      "Inbox synchronization cycles by result.",
		},
		[]string{"result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			wsConnections,
			wsFrames,
			broadcastFailures,
			actionRuns,
			actionDuration,
			inboxSyncs,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordConnection(delta int) {
	RegisterMetrics()
	wsConnections.Add(float64(delta))
}

func RecordFrame(direction, frameType string) {
	RegisterMetrics()
	wsFrames.WithLabelValues(direction, frameType).Inc()
}

func RecordBroadcastFailure() {
	RegisterMetrics()
	broadcastFailures.Inc()
}

func RecordActionExecution(outcome string, duration time.Duration) {
	RegisterMetrics()
	actionRuns.WithLabelValues(outcome).Inc()
	actionDuration.Observe(duration.Seconds())
}

func RecordInboxSync(result string) {
	RegisterMetrics()
	inboxSyncs.WithLabelValues(result).Inc()
}
