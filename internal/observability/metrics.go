package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairchat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pairchat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pairchat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairchat_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	chatEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairchat_chat_events_total",
			Help: "Chat events emitted by type.",
		},
		[]string{"type"},
	)
	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairchat_sweeper_runs_total",
			Help: "Sweeper job runs by job and result.",
		},
		[]string{"job", "result"},
	)
	sweepChangedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairchat_sweeper_changed_records_total",
			Help: "Records expired by sweeper jobs.",
		},
		[]string{"job"},
	)
	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pairchat_sweeper_duration_seconds",
			Help:    "Sweeper job latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pairchat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		chatEventsTotal,
		sweepRunsTotal,
		sweepChangedTotal,
		sweepDuration,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncChatEvent(eventType string) {
	chatEventsTotal.WithLabelValues(eventType).Inc()
}

// ObserveSweep records one sweeper job run.
func ObserveSweep(job string, changed int64, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sweepRunsTotal.WithLabelValues(job, result).Inc()
	if changed > 0 {
		sweepChangedTotal.WithLabelValues(job).Add(float64(changed))
	}
	sweepDuration.WithLabelValues(job).Observe(took.Seconds())
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
