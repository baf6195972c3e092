package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lina",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Completed LiNa transactions.",
		},
		[]string{"op", "outcome"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lina",
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "LiNa transaction duration in seconds, connect to disconnect.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)
	transferBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lina",
			Subsystem: "client",
			Name:      "bytes_total",
			Help:      "Bytes moved by LiNa transactions.",
		},
		[]string{"op", "direction"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lina",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lina",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operations, operationDuration, transferBytes, httpRequests, httpDuration)
	})
}

// RecordOperation observes one finished transaction.
func RecordOperation(op, outcome string, duration time.Duration, sent, received int64) {
	RegisterMetrics()
	operations.WithLabelValues(op, outcome).Inc()
	operationDuration.WithLabelValues(op, outcome).Observe(duration.Seconds())
	if sent > 0 {
		transferBytes.WithLabelValues(op, "sent").Add(float64(sent))
	}
	if received > 0 {
		transferBytes.WithLabelValues(op, "received").Add(float64(received))
	}
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
