package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "duty_roster"

// Metrics 记录 HTTP 请求以及排班表编辑的统计
type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	edits           *prometheus.CounterVec
	mailsQueued     prometheus.Counter
}

// New 在 reg 上注册所有指标，reg 为 nil 时使用新的独立 registry
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds by route.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms .. ~2.5s
		}, []string{"route"}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "edits_total",
			Help:      "Roster edits by operation (place, force_place, append, remove, undo) and result.",
		}, []string{"op", "result"}),
		mailsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "queued_total",
			Help:      "Notification mails published to the queue.",
		}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.edits, m.mailsQueued)
	return m
}

func (m *Metrics) ObserveRequest(method string, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveEdit 记录一次编辑，err 为 nil 表示成功
func (m *Metrics) ObserveEdit(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.edits.WithLabelValues(op, result).Inc()
}

func (m *Metrics) MailQueued() {
	m.mailsQueued.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
